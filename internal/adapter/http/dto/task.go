package dto

type TaskItem struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Body          string  `json:"body"`
	ParentID      *string `json:"parent_id,omitempty"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
	DueDate       *string `json:"due_date,omitempty"`
	EstimatedTime int     `json:"estimated_time"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type CreateTaskRequest struct {
	Title         string  `json:"title" binding:"required,max=255"`
	Body          *string `json:"body" binding:"omitempty,max=65535"`
	ParentID      *string `json:"parent_id" binding:"omitempty,uuid"`
	Status        *string `json:"status"`
	Priority      *string `json:"priority"`
	DueDate       *string `json:"due_date"`
	EstimatedTime *int    `json:"estimated_time" binding:"omitempty,gte=0"`
}

// UpdateTaskRequest is a partial update: only keys present in the body apply.
type UpdateTaskRequest struct {
	Title         *string `json:"title" binding:"omitempty,max=255"`
	Body          *string `json:"body" binding:"omitempty,max=65535"`
	ParentID      *string `json:"parent_id" binding:"omitempty,uuid"`
	Status        *string `json:"status"`
	Priority      *string `json:"priority"`
	DueDate       *string `json:"due_date"`
	EstimatedTime *int    `json:"estimated_time" binding:"omitempty,gte=0"`
}
