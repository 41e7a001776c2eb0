package consts

const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
)

const (
	// MaxFailureDetailLen failure_detail 列长度
	MaxFailureDetailLen = 1024
)
