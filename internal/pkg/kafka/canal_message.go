package kafka

// CanalMessage Canal 推送到 Kafka 的 flat message，列值统一为字符串
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`

	// Data 变更后的行
	Data []map[string]interface{} `json:"data"`
	Old  []map[string]interface{} `json:"old"`

	MysqlType map[string]string `json:"mysqlType"`
}

// Canal 事件类型
const (
	CanalInsert = "INSERT"
	CanalUpdate = "UPDATE"
	CanalDelete = "DELETE"
)
