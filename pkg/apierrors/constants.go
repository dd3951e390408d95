package apierrors

const (
	MsgFailListTask         = "errorListTask"
	MsgFailGetTask          = "failGetTask"
	MsgInvalidTaskID        = "invalidTaskID"
	MsgInvalidTaskPayload   = "invalidTaskPayload"
	MsgInvalidParentFilter  = "invalidParentFilter"
	MsgTaskNotFound         = "taskNotFound"
	MsgFailCreateTask       = "failCreateTask"
	MsgFailUpdateTask       = "failUpdateTask"
	MsgFailDeleteTask       = "failDeleteTask"
	MsgFailGenerateSubtasks = "failGenerateSubtasks"
	MsgStoreUnavailable     = "storeUnavailable"
	MsgCorruptTask          = "corruptTask"
	MsgModelUnavailable     = "modelUnavailable"
	MsgInvalidModelOutput   = "invalidModelOutput"
)
