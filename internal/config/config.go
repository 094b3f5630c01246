package config

type Config struct {
	Journal  JournalConf  `json:"journal"`
	Auth     AuthConf     `json:"auth"`
	LLM      LlmConf      `json:"llm"`
	Telegram TelegramConf `json:"telegram"`
}

type JournalConf struct {
	StartingBalance float64 `json:"starting_balance"` // 起始资金，没有余额快照时作为资金曲线起点
	Timezone        string  `json:"timezone"`         // 快照定时任务使用的时区，默认 Local
}

type AuthConf struct {
	JWTSecret string `json:"jwt_secret"` // 为空时启动随机生成，重启后旧token失效
}

type LlmConf struct {
	BaseURL  string `json:"base_url"`  // LLM API基础URL
	APIKey   string `json:"api_key"`   // LLM API密钥
	Model    string `json:"model"`     // 模型名称
	ProxyURL string `json:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}
