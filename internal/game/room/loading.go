package room

import (
	"log"
	"sync"

	"github.com/palemoky/antidote-server/internal/apperrors"
	"github.com/palemoky/antidote-server/internal/protocol"
	"github.com/palemoky/antidote-server/internal/protocol/codec"
	"github.com/palemoky/antidote-server/internal/types"
)

// LoadingRoom 加载阶段房间：等待所有玩家就位后进入游戏
type LoadingRoom struct {
	mu   sync.Mutex
	code string
	roster[*LoadingPlayer]

	onEmpty       func()
	onStageChange func(next Stage)
}

// NewLoadingRoom 由大厅阶段迁移构造加载房间：逐个重建玩家并保留身份与连接
func NewLoadingRoom(prev *LobbyRoom) *LoadingRoom {
	log.Printf("⏱️ 房间 %s 进入加载阶段", prev.code)

	lr := &LoadingRoom{code: prev.code}
	for _, p := range prev.connected {
		lr.connected = append(lr.connected, &LoadingPlayer{Player: p.Player})
	}
	for _, p := range prev.disconnected {
		lr.disconnected = append(lr.disconnected, &LoadingPlayer{Player: p.Player})
	}
	return lr
}

func (l *LoadingRoom) Code() string {
	return l.code
}

// SetHooks 注册生命周期回调
func (l *LoadingRoom) SetHooks(onEmpty func(), onStageChange func(next Stage)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onEmpty = onEmpty
	l.onStageChange = onStageChange
}

// AddPlayer 加入（通常是重连）玩家
func (l *LoadingRoom) AddPlayer(name string, client types.ClientInterface) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := &LoadingPlayer{Player: NewPlayer(name, client)}
	if err := l.add(p); err != nil {
		return "", err
	}

	log.Printf("👤 玩家 %s 加入加载中的房间 %s", name, l.code)
	client.SendMessage(codec.MustNewMessage(protocol.MsgStartLoading, nil))
	l.syncLocked()
	return p.ID, nil
}

// RemovePlayer 玩家断线
func (l *LoadingRoom) RemovePlayer(playerID string) {
	l.mu.Lock()

	p, empty, ok := l.remove(playerID)
	if !ok {
		l.mu.Unlock()
		return
	}
	log.Printf("👋 玩家 %s 离开房间 %s", p.Name, l.code)

	l.syncLocked()
	onEmpty := l.onEmpty
	l.mu.Unlock()

	if empty && onEmpty != nil {
		onEmpty()
	}
}

// Ready 入场动作：通知所有玩家开始加载并广播初始状态
func (l *LoadingRoom) Ready() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.broadcast(codec.MustNewMessage(protocol.MsgStartLoading, nil))
	l.syncLocked()
}

// HandleMessage 处理加载阶段入站消息
func (l *LoadingRoom) HandleMessage(playerID string, msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgLoaded:
		l.handleLoaded(playerID)
	default:
		l.mu.Lock()
		p, ok := l.findConnected(playerID)
		l.mu.Unlock()
		if ok {
			p.Client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		}
	}
}

// handleLoaded 记录玩家加载完成；全员就位后迁移到游戏阶段
func (l *LoadingRoom) handleLoaded(playerID string) {
	l.mu.Lock()

	p, ok := l.findConnected(playerID)
	if !ok {
		l.mu.Unlock()
		return
	}

	// 重复的 loaded 信号只回错误，不触发广播
	if p.Loaded {
		log.Printf("⚠️ 玩家 %s 重复发送 loaded 信号（房间 %s）", p.Name, l.code)
		sendError(p.Client, apperrors.ErrAlreadyLoaded)
		l.mu.Unlock()
		return
	}

	log.Printf("✅ 玩家 %s 已在房间 %s 完成加载", p.Name, l.code)
	p.Loaded = true
	l.syncLocked()

	if !l.allLoadedLocked() {
		l.mu.Unlock()
		return
	}

	next := NewGameRoom(l)
	hook := l.onStageChange
	l.onEmpty = nil
	l.onStageChange = nil
	l.mu.Unlock()

	if hook != nil {
		hook(next)
	}
}

// allLoadedLocked 所有在线玩家是否都已加载完成
func (l *LoadingRoom) allLoadedLocked() bool {
	for _, p := range l.connected {
		if !p.Loaded {
			return false
		}
	}
	return true
}

// syncLocked 广播加载状态列表
func (l *LoadingRoom) syncLocked() {
	if len(l.connected) == 0 {
		return
	}

	list := make(protocol.LoadingSyncPayload, 0, len(l.connected))
	for _, p := range l.connected {
		list = append(list, protocol.LoadingPlayerInfo{
			ID:        p.ID,
			Name:      p.Name,
			Connected: p.Loaded,
		})
	}
	l.broadcast(codec.MustNewMessage(protocol.MsgLoadingSync, list))
}

// Snapshot 导出名册快照
func (l *LoadingRoom) Snapshot() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Snapshot{
		Code:    l.code,
		Stage:   "loading",
		Players: l.snapshotPlayers(),
	}
}
