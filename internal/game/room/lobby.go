package room

import (
	"log"
	"sync"
	"time"

	"github.com/palemoky/antidote-server/internal/apperrors"
	"github.com/palemoky/antidote-server/internal/protocol"
	"github.com/palemoky/antidote-server/internal/protocol/codec"
	"github.com/palemoky/antidote-server/internal/types"
)

// LobbyRoom 大厅阶段房间：准备状态与开局倒计时
type LobbyRoom struct {
	mu   sync.Mutex
	code string
	roster[*LobbyPlayer]

	countdown time.Duration
	timer     *time.Timer // 非 nil 表示倒计时进行中

	onEmpty       func()
	onStageChange func(next Stage)
}

// NewLobbyRoom 创建大厅房间
func NewLobbyRoom(code string, countdown time.Duration) *LobbyRoom {
	log.Printf("🏠 房间 %s 进入大厅阶段", code)
	return &LobbyRoom{
		code:      code,
		countdown: countdown,
	}
}

func (l *LobbyRoom) Code() string {
	return l.code
}

// SetHooks 注册生命周期回调
func (l *LobbyRoom) SetHooks(onEmpty func(), onStageChange func(next Stage)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onEmpty = onEmpty
	l.onStageChange = onStageChange
}

// AddPlayer 加入玩家并广播大厅名册
func (l *LobbyRoom) AddPlayer(name string, client types.ClientInterface) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := &LobbyPlayer{Player: NewPlayer(name, client)}
	if err := l.add(p); err != nil {
		return "", err
	}

	log.Printf("👤 玩家 %s 加入房间 %s", name, l.code)
	l.syncLocked()
	return p.ID, nil
}

// RemovePlayer 玩家断线；倒计时进行中时取消倒计时
func (l *LobbyRoom) RemovePlayer(playerID string) {
	l.mu.Lock()

	p, empty, ok := l.remove(playerID)
	if !ok {
		l.mu.Unlock()
		return
	}
	log.Printf("👋 玩家 %s 离开房间 %s", p.Name, l.code)

	if l.timer != nil {
		if empty {
			// 房间即将被回收，静默停表即可
			l.timer.Stop()
			l.timer = nil
		} else {
			log.Printf("⏹️ 房间 %s 有玩家在倒计时中离开，取消倒计时", l.code)
			l.stopTimerLocked()
		}
	}

	l.syncLocked()
	onEmpty := l.onEmpty
	l.mu.Unlock()

	if empty && onEmpty != nil {
		onEmpty()
	}
}

// Ready 入场动作：广播一次大厅名册
func (l *LobbyRoom) Ready() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.syncLocked()
}

// HandleMessage 处理大厅阶段入站消息
func (l *LobbyRoom) HandleMessage(playerID string, msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgToggleReady:
		l.handleToggleReady(playerID)
	case protocol.MsgToggleTimer:
		l.handleToggleTimer(playerID)
	default:
		l.mu.Lock()
		p, ok := l.findConnected(playerID)
		l.mu.Unlock()
		if ok {
			p.Client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		}
	}
}

// handleToggleReady 翻转准备状态；有人取消准备时停掉已启动的倒计时
func (l *LobbyRoom) handleToggleReady(playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.findConnected(playerID)
	if !ok {
		return
	}

	p.Ready = !p.Ready

	if l.timer != nil && !l.allReadyLocked() {
		log.Printf("⏹️ 房间 %s 有玩家取消准备，停止倒计时", l.code)
		l.stopTimerLocked()
	}

	l.syncLocked()
}

// handleToggleTimer 房主启动/取消开局倒计时
func (l *LobbyRoom) handleToggleTimer(playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.findConnected(playerID)
	if !ok {
		return
	}

	// 只有最早加入的在线玩家（房主）可以操作倒计时
	if l.connected[0].ID != playerID {
		sendError(p.Client, apperrors.ErrNotHost)
		return
	}

	if l.timer != nil {
		log.Printf("⏹️ 房主取消了房间 %s 的倒计时", l.code)
		l.stopTimerLocked()
		return
	}

	if !l.allReadyLocked() {
		sendError(p.Client, apperrors.ErrNotAllReady)
		return
	}

	start := time.Now().Add(l.countdown)
	log.Printf("⏳ 房间 %s 全员就绪，倒计时启动，预计 %s 开局", l.code, start.Format(time.RFC3339))

	l.broadcast(codec.MustNewMessage(protocol.MsgRoundTimerStart, protocol.RoundTimerStartPayload{
		Start: start.UnixMilli(),
	}))
	l.timer = time.AfterFunc(l.countdown, l.expire)
}

// stopTimerLocked 停止倒计时并广播取消通知
func (l *LobbyRoom) stopTimerLocked() {
	l.timer.Stop()
	l.timer = nil
	l.broadcast(codec.MustNewMessage(protocol.MsgRoundTimerStop, nil))
}

// expire 倒计时到期：迁移到加载阶段
func (l *LobbyRoom) expire() {
	l.mu.Lock()

	// 到期与取消可能竞争；timer 已被清掉说明倒计时其实被取消了
	if l.timer == nil {
		l.mu.Unlock()
		return
	}
	l.timer = nil

	log.Printf("🎬 房间 %s 倒计时结束，开始新的一局", l.code)

	next := NewLoadingRoom(l)
	hook := l.onStageChange
	l.onEmpty = nil
	l.onStageChange = nil

	l.broadcast(codec.MustNewMessage(protocol.MsgRoomChange, nil))
	l.mu.Unlock()

	if hook != nil {
		hook(next)
	}
}

// allReadyLocked 所有在线玩家是否都已准备
func (l *LobbyRoom) allReadyLocked() bool {
	for _, p := range l.connected {
		if !p.Ready {
			return false
		}
	}
	return true
}

// syncLocked 广播大厅玩家列表
func (l *LobbyRoom) syncLocked() {
	if len(l.connected) == 0 {
		return
	}

	list := make(protocol.LobbySyncPayload, 0, len(l.connected))
	for _, p := range l.connected {
		list = append(list, protocol.LobbyPlayerInfo{
			ID:    p.ID,
			Name:  p.Name,
			Ready: p.Ready,
		})
	}
	l.broadcast(codec.MustNewMessage(protocol.MsgLobbySync, list))
}

// Snapshot 导出名册快照
func (l *LobbyRoom) Snapshot() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Snapshot{
		Code:    l.code,
		Stage:   "lobby",
		Players: l.snapshotPlayers(),
	}
}
