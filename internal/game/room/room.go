package room

import (
	"slices"

	"github.com/palemoky/antidote-server/internal/apperrors"
	"github.com/palemoky/antidote-server/internal/protocol"
	"github.com/palemoky/antidote-server/internal/protocol/codec"
	"github.com/palemoky/antidote-server/internal/types"
)

// Stage 房间的一个生命周期阶段（Lobby → Loading → Game，线性，无环）
type Stage interface {
	Code() string
	// AddPlayer 加入玩家，返回分配（或重连继承）的玩家 id
	AddPlayer(name string, client types.ClientInterface) (string, error)
	RemovePlayer(playerID string)
	HandleMessage(playerID string, msg *protocol.Message)
	// Ready 房间构造并完成成员迁移后调用一次，执行阶段入场动作
	Ready()
	// SetHooks 注册生命周期回调：连接名册变空、阶段切换
	SetHooks(onEmpty func(), onStageChange func(next Stage))
	Snapshot() *Snapshot
}

// Snapshot 房间名册快照（用于 Redis 镜像等只读用途）
type Snapshot struct {
	Code    string           `json:"code"`
	Stage   string           `json:"stage"`
	Players []PlayerSnapshot `json:"players"`
}

// PlayerSnapshot 玩家名册条目
type PlayerSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// stagePlayer 各阶段玩家的公共视图
type stagePlayer[P any] interface {
	base() *Player
	adoptFrom(P)
}

// roster 有序的连接/断线玩家名册；一个玩家任一时刻只会出现在其中一侧
type roster[P stagePlayer[P]] struct {
	connected    []P
	disconnected []P
}

// add 加入玩家；同名断线玩家会被"复活"：新对象继承其身份与阶段状态
func (r *roster[P]) add(p P) error {
	name := p.base().Name
	for _, cp := range r.connected {
		if cp.base().Name == name {
			return apperrors.ErrDuplicateIdentity
		}
	}

	for i, dp := range r.disconnected {
		if dp.base().Name == name {
			p.adoptFrom(dp)
			r.disconnected = slices.Delete(r.disconnected, i, i+1)
			break
		}
	}

	r.connected = append(r.connected, p)
	return nil
}

// remove 把玩家移入断线名册；第二个返回值表示连接名册是否因此变空
func (r *roster[P]) remove(playerID string) (P, bool, bool) {
	for i, cp := range r.connected {
		if cp.base().ID == playerID {
			r.connected = slices.Delete(r.connected, i, i+1)
			r.disconnected = append(r.disconnected, cp)
			return cp, len(r.connected) == 0, true
		}
	}
	var zero P
	return zero, false, false
}

// findConnected 按 id 查找在线玩家
func (r *roster[P]) findConnected(playerID string) (P, bool) {
	for _, cp := range r.connected {
		if cp.base().ID == playerID {
			return cp, true
		}
	}
	var zero P
	return zero, false
}

// findAny 按 id 查找玩家，包含断线玩家
func (r *roster[P]) findAny(playerID string) (P, bool) {
	if p, ok := r.findConnected(playerID); ok {
		return p, true
	}
	for _, dp := range r.disconnected {
		if dp.base().ID == playerID {
			return dp, true
		}
	}
	var zero P
	return zero, false
}

// broadcast 向所有在线玩家发送消息
func (r *roster[P]) broadcast(msg *protocol.Message) {
	for _, cp := range r.connected {
		cp.base().Client.SendMessage(msg)
	}
}

// snapshotPlayers 导出名册条目
func (r *roster[P]) snapshotPlayers() []PlayerSnapshot {
	players := make([]PlayerSnapshot, 0, len(r.connected)+len(r.disconnected))
	for _, cp := range r.connected {
		players = append(players, PlayerSnapshot{ID: cp.base().ID, Name: cp.base().Name, Connected: true})
	}
	for _, dp := range r.disconnected {
		players = append(players, PlayerSnapshot{ID: dp.base().ID, Name: dp.base().Name, Connected: false})
	}
	return players
}

// sendError 向单个客户端发送游戏错误
func sendError(client types.ClientInterface, err *apperrors.GameError) {
	client.SendMessage(codec.NewErrorMessageWithText(err.Code, err.Message))
}
