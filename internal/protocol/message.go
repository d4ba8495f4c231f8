package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 大厅操作
	MsgToggleReady MessageType = "toggleReady" // 切换准备状态
	MsgToggleTimer MessageType = "toggleTimer" // 启动/取消开局倒计时

	// 加载操作
	MsgLoaded MessageType = "loaded" // 资源加载完成

	// 游戏操作
	MsgTurnSelect   MessageType = "turnSelect"   // 选择回合行动
	MsgHandResponse MessageType = "handResponse" // 手牌选择应答
	MsgResync       MessageType = "resync"       // 请求重新下发全量同步
)

// 服务端 → 客户端 消息类型
const (
	// 大厅
	MsgLobbySync       MessageType = "lobbySync"       // 大厅玩家列表
	MsgRoundTimerStart MessageType = "roundTimerStart" // 开局倒计时启动（绝对到期时间戳）
	MsgRoundTimerStop  MessageType = "roundTimerStop"  // 开局倒计时取消
	MsgRoomChange      MessageType = "roomChange"      // 房间进入下一阶段

	// 加载
	MsgStartLoading MessageType = "startLoading" // 进入加载阶段
	MsgLoadingSync  MessageType = "loadingSync"  // 加载状态列表

	// 游戏
	MsgGameSync   MessageType = "gameSync"   // 个性化全量同步
	MsgActionSync MessageType = "actionSync" // 行动等待集合
	MsgHandQuery  MessageType = "handQuery"  // 手牌选择请求

	// 错误
	MsgError MessageType = "error" // 错误消息
)
