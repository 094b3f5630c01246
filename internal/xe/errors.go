package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams      = orz.NewError(10400, "参数无效")
	ErrInvalidToken       = orz.NewError(10403, "令牌无效")
	ErrPermissionDenied   = orz.NewError(10401, "您没有权限查看/修改/删除此数据")
	ErrAccountAlreadyUsed = orz.NewError(10000, "账户已被使用")
	ErrIncorrectPassword  = orz.NewError(10001, "账户或密码错误")
	ErrAlreadyInitialized = orz.NewError(10002, "系统已经初始化，无法重复设置")
	ErrEntryNotFound      = orz.NewError(10003, "日志条目不存在")
	ErrEntryDateExists    = orz.NewError(10004, "该日期已存在日志条目")
	ErrInvalidDateRange   = orz.NewError(10005, "日期范围无效")
	ErrAssistantDisabled  = orz.NewError(10006, "AI助手未配置")
	ErrContactDisabled    = orz.NewError(10007, "联系渠道未启用")
	ErrInvalidEmail       = orz.NewError(10008, "邮箱格式不正确")
)
