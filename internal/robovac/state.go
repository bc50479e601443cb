package robovac

// Activity is the normalized device activity exposed to the host.
type Activity string

const (
	ActivityIdle      Activity = "idle"
	ActivityCleaning  Activity = "cleaning"
	ActivityPaused    Activity = "paused"
	ActivityReturning Activity = "returning"
	ActivityDocked    Activity = "docked"
	ActivityError     Activity = "error"
)

// ConnectionState is the session's transport lifecycle, independent of
// data freshness.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// Field is one entry in the fixed normalized state vocabulary. Raw
// data-point keys are vendor wire codes; Fields are what the rest of
// the bridge reads and writes.
type Field string

const (
	FieldPlayPause          Field = "PLAY_PAUSE"
	FieldDirection          Field = "DIRECTION"
	FieldWorkMode           Field = "WORK_MODE"
	FieldWorkStatus         Field = "WORK_STATUS"
	FieldCleaningParameters Field = "CLEANING_PARAMETERS"
	FieldCleanSpeed         Field = "CLEAN_SPEED"
	FieldFindRobot          Field = "FIND_ROBOT"
	FieldBatteryLevel       Field = "BATTERY_LEVEL"
	FieldCleaningStatistics Field = "CLEANING_STATISTICS"
	FieldAccessoriesStatus  Field = "ACCESSORIES_STATUS"
	FieldGoHome             Field = "GO_HOME"
	FieldErrorCode          Field = "ERROR_CODE"
)
