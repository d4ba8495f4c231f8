package protocol

// --- 客户端请求 Payloads ---

// TurnSelectPayload 回合行动请求
type TurnSelectPayload struct {
	Action    string `json:"action"`              // discard/trade/use/pass
	Argument  string `json:"argument,omitempty"`  // pass: 方向; trade: 目标玩家; use: 卡牌 ID
	Argument2 string `json:"argument2,omitempty"` // use: 目标类型 (player/card)
	Argument3 string `json:"argument3,omitempty"` // use: 目标 ID
}

// HandResponsePayload 手牌选择应答；Card 为 null 表示拒绝
type HandResponsePayload struct {
	Card *string `json:"card"`
}

// --- 服务端响应 Payloads ---

// LobbyPlayerInfo 大厅玩家状态
type LobbyPlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// LobbySyncPayload 大厅玩家列表
type LobbySyncPayload []LobbyPlayerInfo

// RoundTimerStartPayload 开局倒计时启动通知
type RoundTimerStartPayload struct {
	Start int64 `json:"start"` // 绝对到期时间戳（毫秒），所有玩家收到同一个值
}

// LoadingPlayerInfo 加载阶段玩家状态
type LoadingPlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// LoadingSyncPayload 加载状态列表
type LoadingSyncPayload []LoadingPlayerInfo

// CardInfo 牌信息；被隐藏的牌只保留 id
type CardInfo struct {
	ID    string `json:"id"`
	Suit  string `json:"suit,omitempty"`
	Value string `json:"value,omitempty"`
}

// PlayerStatusInfo 其他玩家的公开状态（手牌永不下发）
type PlayerStatusInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Workstation []CardInfo `json:"workstation"`
	IsTurn      bool       `json:"is_turn"`
}

// GameSyncPayload 针对单个玩家个性化的全量同步
type GameSyncPayload struct {
	Players     []PlayerStatusInfo `json:"players"`
	Hand        []CardInfo         `json:"hand"`
	Workstation []CardInfo         `json:"workstation"`
	ID          string             `json:"id"`
	IsTurn      bool               `json:"is_turn"`
}

// ActionSyncPayload 行动过程中的等待集合
type ActionSyncPayload struct {
	WaitingOn []string `json:"waiting_on"`
}

// HandQueryPayload 手牌选择请求
type HandQueryPayload struct {
	Message     string `json:"message"`
	CanReject   bool   `json:"can_reject"`
	Destination string `json:"destination,omitempty"` // 交换时对端玩家的 id
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
