package room

import (
	"log"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"

	"github.com/palemoky/antidote-server/internal/game/card"
	"github.com/palemoky/antidote-server/internal/protocol"
	"github.com/palemoky/antidote-server/internal/protocol/codec"
	"github.com/palemoky/antidote-server/internal/types"
)

// 回合行动
const (
	ActionDiscard = "discard"
	ActionTrade   = "trade"
	ActionUse     = "use"
	ActionPass    = "pass"
)

// handQuery 一次未应答的手牌选择请求
type handQuery struct {
	message   string
	canReject bool
	// resolve 在房间锁内执行；responder 是应答时刻的在线玩家对象，c 为 nil 表示拒绝
	resolve func(responder *GamePlayer, c *card.Card)
}

// GameRoom 游戏阶段房间：Antidote 回合引擎
type GameRoom struct {
	mu   sync.Mutex
	code string
	roster[*GamePlayer]

	antidote    string
	turnOrder   []string // 发牌时按加入顺序固定的玩家 id 序列，此后不再变化
	currentTurn int

	currentAction string                // "" 表示没有行动进行中
	pending       map[string]*handQuery // playerID → 未应答的手牌请求
	outstanding   int
	onBarrier     func() // 当前行动的所有请求都应答后执行一次

	onEmpty       func()
	onStageChange func(next Stage) // 游戏是最终阶段，不会触发
}

// NewGameRoom 由加载阶段迁移构造游戏房间
func NewGameRoom(prev *LoadingRoom) *GameRoom {
	log.Printf("🎮 房间 %s 进入游戏阶段", prev.code)

	g := &GameRoom{
		code:    prev.code,
		pending: make(map[string]*handQuery),
	}
	for _, p := range prev.connected {
		g.connected = append(g.connected, &GamePlayer{Player: p.Player})
	}
	for _, p := range prev.disconnected {
		g.disconnected = append(g.disconnected, &GamePlayer{Player: p.Player})
	}
	return g
}

func (g *GameRoom) Code() string {
	return g.code
}

// SetHooks 注册生命周期回调
func (g *GameRoom) SetHooks(onEmpty func(), onStageChange func(next Stage)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onEmpty = onEmpty
	g.onStageChange = onStageChange
}

// AddPlayer 加入（通常是重连）玩家；重连玩家会继承手牌与工作台
func (g *GameRoom) AddPlayer(name string, client types.ClientInterface) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := &GamePlayer{Player: NewPlayer(name, client)}
	if err := g.add(p); err != nil {
		return "", err
	}

	log.Printf("👤 玩家 %s 加入游戏中的房间 %s", name, g.code)
	if len(g.turnOrder) > 0 {
		g.syncLocked()
	}
	return p.ID, nil
}

// RemovePlayer 玩家断线；其未应答的手牌请求保持挂起（没有超时机制）
func (g *GameRoom) RemovePlayer(playerID string) {
	g.mu.Lock()

	p, empty, ok := g.remove(playerID)
	if !ok {
		g.mu.Unlock()
		return
	}
	log.Printf("👋 玩家 %s 离开游戏中的房间 %s", p.Name, g.code)

	onEmpty := g.onEmpty
	g.mu.Unlock()

	if empty && onEmpty != nil {
		onEmpty()
	}
}

// Ready 入场动作：发牌并随机选择起始回合
func (g *GameRoom) Ready() {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.connected)
	if n == 0 {
		return
	}

	// 选出解药配方；7 人局额外引入 agent_u
	formulas := card.BaseFormulas()
	if n == 7 {
		formulas = append(formulas, card.FormulaAgentU)
	}
	idx := rand.IntN(len(formulas))
	g.antidote = formulas[idx]
	rest := slices.Delete(formulas, idx, idx+1)
	log.Printf("🧪 房间 %s 选定解药配方: %s", g.code, g.antidote)

	// 每个非解药配方一张 "x" 标记牌和 N 张数字牌；解药配方只有数字牌
	markers := card.NewDeck()
	numbers := card.NewDeck()
	for _, f := range rest {
		markers.Push(card.New(f, card.MarkerValue))
		for v := 1; v <= n; v++ {
			numbers.Push(card.New(f, strconv.Itoa(v)))
		}
	}
	for v := 1; v <= n; v++ {
		numbers.Push(card.New(g.antidote, strconv.Itoa(v)))
	}

	// 注射器补齐标记牌堆，使其能被玩家数整除
	syringes := n - len(rest)%n
	log.Printf("💉 房间 %s 注射器数量: %d", g.code, syringes)
	for i := 0; i < syringes; i++ {
		markers.Push(card.New(card.SuitSyringe, ""))
	}

	if markers.Len()%n != 0 {
		log.Printf("💥 房间 %s 配置错误: 标记牌堆 %d 张无法被 %d 名玩家均分，本局无法开始", g.code, markers.Len(), n)
		g.broadcast(codec.NewErrorMessage(protocol.ErrCodeConfiguration))
		return
	}

	markers.Shuffle()
	g.dealLocked(markers, markers.Len()/n)
	numbers.Shuffle()
	g.dealLocked(numbers, len(rest)+1)

	// 回合顺序按加入顺序固定
	for _, p := range g.connected {
		g.turnOrder = append(g.turnOrder, p.ID)
	}
	g.updateTurnLocked(rand.IntN(n))
}

// dealLocked 按序给每名在线玩家发 limit 张
func (g *GameRoom) dealLocked(d *card.Deck, limit int) {
	for _, p := range g.connected {
		p.Hand = append(p.Hand, d.Draw(limit)...)
	}
}

// updateTurnLocked 切换回合：清除进行中的行动、标记新的当前玩家并全量同步
func (g *GameRoom) updateTurnLocked(turn int) {
	n := len(g.turnOrder)
	turn = ((turn % n) + n) % n
	g.currentTurn = turn
	g.currentAction = ""

	if p, ok := g.findAny(g.turnOrder[turn]); ok {
		p.Waiting = true
	}

	log.Printf("🎯 房间 %s 当前回合序号: %d", g.code, turn)
	g.syncLocked()
}

// currentPlayerIDLocked 当前回合玩家的 id
func (g *GameRoom) currentPlayerIDLocked() string {
	return g.turnOrder[g.currentTurn]
}

// syncLocked 向每名在线玩家下发个性化全量同步：
// 自己的手牌和工作台全量；其他玩家只有公开状态，且标记牌被隐藏
func (g *GameRoom) syncLocked() {
	if len(g.connected) == 0 || len(g.turnOrder) == 0 {
		return
	}

	currentID := g.currentPlayerIDLocked()
	for _, viewer := range g.connected {
		status := make([]protocol.PlayerStatusInfo, 0, len(g.turnOrder))
		for _, id := range g.turnOrder {
			if id == viewer.ID {
				continue
			}
			other, ok := g.findAny(id)
			if !ok {
				continue
			}
			status = append(status, protocol.PlayerStatusInfo{
				ID:          other.ID,
				Name:        other.Name,
				Workstation: hiddenWorkstation(other.Workstation),
				IsTurn:      other.ID == currentID,
			})
		}

		viewer.Client.SendMessage(codec.MustNewMessage(protocol.MsgGameSync, protocol.GameSyncPayload{
			Players:     status,
			Hand:        cardInfos(viewer.Hand),
			Workstation: cardInfos(viewer.Workstation),
			ID:          viewer.ID,
			IsTurn:      viewer.ID == currentID,
		}))
	}
}

// actionSyncLocked 广播当前等待应答的玩家集合
func (g *GameRoom) actionSyncLocked() {
	waiting := make([]string, 0, len(g.connected))
	for _, p := range g.connected {
		if p.Waiting {
			waiting = append(waiting, p.ID)
		}
	}
	g.broadcast(codec.MustNewMessage(protocol.MsgActionSync, protocol.ActionSyncPayload{
		WaitingOn: waiting,
	}))
}

// cardInfos 导出牌面
func cardInfos(cards []*card.Card) []protocol.CardInfo {
	infos := make([]protocol.CardInfo, 0, len(cards))
	for _, c := range cards {
		infos = append(infos, protocol.CardInfo{ID: c.ID, Suit: c.Suit, Value: c.Value})
	}
	return infos
}

// hiddenWorkstation 导出工作台牌面，"x" 标记牌只保留 id，花色与数值永不泄露
func hiddenWorkstation(cards []*card.Card) []protocol.CardInfo {
	infos := make([]protocol.CardInfo, 0, len(cards))
	for _, c := range cards {
		if c.IsMarker() {
			infos = append(infos, protocol.CardInfo{ID: c.ID})
			continue
		}
		infos = append(infos, protocol.CardInfo{ID: c.ID, Suit: c.Suit, Value: c.Value})
	}
	return infos
}

// removeCardByID 从牌列表移除指定 id 的牌
func removeCardByID(cards []*card.Card, cardID string) ([]*card.Card, *card.Card) {
	for i, c := range cards {
		if c.ID == cardID {
			return slices.Delete(cards, i, i+1), c
		}
	}
	return cards, nil
}

// Snapshot 导出名册快照
func (g *GameRoom) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &Snapshot{
		Code:    g.code,
		Stage:   "game",
		Players: g.snapshotPlayers(),
	}
}
