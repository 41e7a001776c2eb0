package consts

const (
	ScheduledListKey        = "content:scheduled:list:"
	ScheduledListVersionKey = "content:scheduled:version:"
)

const (
	ScheduleSweepLock = "lock:schedule:sweep"
)

const (
	TokenBlacklistKey = "token:blacklist:"
)
