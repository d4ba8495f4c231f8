package room

import (
	"github.com/google/uuid"

	"github.com/palemoky/antidote-server/internal/game/card"
	"github.com/palemoky/antidote-server/internal/types"
)

// Player 连接绑定的玩家身份
type Player struct {
	ID     string
	Name   string
	Client types.ClientInterface
}

// NewPlayer 创建玩家
func NewPlayer(name string, client types.ClientInterface) *Player {
	return &Player{
		ID:     uuid.NewString(),
		Name:   name,
		Client: client,
	}
}

func (p *Player) base() *Player {
	return p
}

// LobbyPlayer 大厅阶段玩家
type LobbyPlayer struct {
	*Player
	Ready bool
}

// adoptFrom 重连时继承断线玩家的身份与准备状态
func (p *LobbyPlayer) adoptFrom(o *LobbyPlayer) {
	p.ID = o.ID
	p.Ready = o.Ready
}

// LoadingPlayer 加载阶段玩家
type LoadingPlayer struct {
	*Player
	Loaded bool
}

func (p *LoadingPlayer) adoptFrom(o *LoadingPlayer) {
	p.ID = o.ID
	p.Loaded = o.Loaded
}

// GamePlayer 游戏阶段玩家
type GamePlayer struct {
	*Player
	Hand        []*card.Card
	Workstation []*card.Card
	Waiting     bool // 存在未应答的手牌请求，或正轮到该玩家选择行动
}

// adoptFrom 重连时继承断线玩家的身份和全部游戏状态
func (p *GamePlayer) adoptFrom(o *GamePlayer) {
	p.ID = o.ID
	p.Hand = o.Hand
	p.Workstation = o.Workstation
	p.Waiting = o.Waiting
}
