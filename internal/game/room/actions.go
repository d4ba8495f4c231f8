package room

import (
	"encoding/json"
	"log"
	"math/rand/v2"
	"slices"

	"github.com/palemoky/antidote-server/internal/apperrors"
	"github.com/palemoky/antidote-server/internal/game/card"
	"github.com/palemoky/antidote-server/internal/protocol"
	"github.com/palemoky/antidote-server/internal/protocol/codec"
)

// HandleMessage 处理游戏阶段入站消息；整个房间由单把锁串行化，
// 手牌应答的 resolve 回调也在同一把锁内执行
func (g *GameRoom) HandleMessage(playerID string, msg *protocol.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.findConnected(playerID)
	if !ok {
		return
	}

	switch msg.Type {
	case protocol.MsgTurnSelect:
		g.handleTurnSelectLocked(p, msg)
	case protocol.MsgHandResponse:
		g.handleHandResponseLocked(p, msg)
	case protocol.MsgResync:
		g.syncLocked()
	default:
		p.Client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// handleTurnSelectLocked 回合行动入口：只接受当前回合玩家，且无行动进行中
func (g *GameRoom) handleTurnSelectLocked(p *GamePlayer, msg *protocol.Message) {
	var sel protocol.TurnSelectPayload
	if msg.Payload == nil || json.Unmarshal(msg.Payload, &sel) != nil {
		p.Client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	log.Printf("🃏 玩家 %s 选择行动 %s（房间 %s）", p.Name, sel.Action, g.code)

	if len(g.turnOrder) == 0 {
		p.Client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeConfiguration))
		return
	}
	if g.currentPlayerIDLocked() != p.ID {
		sendError(p.Client, apperrors.ErrNotYourTurn)
		return
	}
	if g.currentAction != "" {
		sendError(p.Client, apperrors.ErrActionInFlight)
		return
	}

	switch sel.Action {
	case ActionDiscard:
		p.Waiting = false
		g.startDiscardLocked()
	case ActionPass:
		var offset int
		switch sel.Argument {
		case "left":
			offset = -1
		case "right":
			offset = 1
		case "":
			p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "no direction provided"))
			return
		default:
			p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "'"+sel.Argument+"' is not a valid direction"))
			return
		}
		p.Waiting = false
		g.startPassLocked(offset)
	case ActionTrade:
		if sel.Argument == "" {
			p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "no target provided"))
			return
		}
		target, ok := g.findConnected(sel.Argument)
		if !ok {
			p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "could not find a player with id '"+sel.Argument+"'"))
			return
		}
		// 自我交换会让两阶段请求共用同一个挂起槽位，直接拒绝
		if target.ID == p.ID {
			p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "cannot trade with yourself"))
			return
		}
		p.Waiting = false
		g.startTradeLocked(p, target)
	case ActionUse:
		g.handleUseLocked(p, sel.Argument, sel.Argument2, sel.Argument3)
	default:
		log.Printf("⚠️ 玩家 %s 发送了未知行动 '%s'（房间 %s）", p.Name, sel.Action, g.code)
		p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "unhandled action"))
	}
}

// queryHandLocked 向单个玩家发出手牌选择请求并登记待应答记录
func (g *GameRoom) queryHandLocked(p *GamePlayer, message string, canReject bool, destination string, resolve func(responder *GamePlayer, c *card.Card)) {
	g.pending[p.ID] = &handQuery{
		message:   message,
		canReject: canReject,
		resolve:   resolve,
	}
	g.outstanding++
	p.Waiting = true

	p.Client.SendMessage(codec.MustNewMessage(protocol.MsgHandQuery, protocol.HandQueryPayload{
		Message:     message,
		CanReject:   canReject,
		Destination: destination,
	}))
}

// handleHandResponseLocked 手牌请求应答。
// 无效的选择只回错误给应答者本人，已登记的请求保持挂起，
// 同一行动中其他玩家的请求不受影响
func (g *GameRoom) handleHandResponseLocked(p *GamePlayer, msg *protocol.Message) {
	var resp protocol.HandResponsePayload
	if msg.Payload == nil || json.Unmarshal(msg.Payload, &resp) != nil {
		p.Client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	query, ok := g.pending[p.ID]
	if !ok {
		sendError(p.Client, apperrors.ErrNoPendingQuery)
		return
	}

	var selected *card.Card
	if resp.Card == nil {
		if !query.canReject {
			log.Printf("⚠️ 玩家 %s 试图拒绝不可拒绝的请求（房间 %s）", p.Name, g.code)
			sendError(p.Client, apperrors.ErrCannotReject)
			return
		}
	} else {
		idx := slices.IndexFunc(p.Hand, func(c *card.Card) bool { return c.ID == *resp.Card })
		if idx < 0 {
			log.Printf("⚠️ 玩家 %s 的应答指向不存在的牌 '%s'（房间 %s）", p.Name, *resp.Card, g.code)
			p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidSelection, "could not find card with id '"+*resp.Card+"'"))
			return
		}
		selected = p.Hand[idx]
	}

	delete(g.pending, p.ID)
	g.outstanding--
	p.Waiting = false
	query.resolve(p, selected)

	g.maybeCompleteLocked()
}

// maybeCompleteLocked 屏障检查：当前行动的全部请求应答后收尾一次
func (g *GameRoom) maybeCompleteLocked() {
	if g.currentAction == "" || g.outstanding > 0 || g.onBarrier == nil {
		return
	}
	done := g.onBarrier
	g.onBarrier = nil
	done()
}

// startDiscardLocked 弃牌：并发询问所有在线玩家，逐个落牌到各自工作台
func (g *GameRoom) startDiscardLocked() {
	g.currentAction = ActionDiscard

	for _, p := range g.connected {
		g.queryHandLocked(p, "Discard a card", false, "", func(responder *GamePlayer, c *card.Card) {
			responder.Hand, _ = removeCardByID(responder.Hand, c.ID)
			responder.Workstation = append(responder.Workstation, c)
			g.actionSyncLocked()
		})
	}

	g.onBarrier = func() {
		g.updateTurnLocked(g.currentTurn + 1)
	}
	g.actionSyncLocked()
}

// startPassLocked 传牌：并发询问所有在线玩家，全部应答后才统一投递
func (g *GameRoom) startPassLocked(offset int) {
	g.currentAction = ActionPass
	n := len(g.turnOrder)

	type delivery struct {
		toID string
		c    *card.Card
	}
	var deliveries []delivery

	for _, p := range g.connected {
		idx := slices.Index(g.turnOrder, p.ID)
		if idx < 0 {
			continue
		}
		toID := g.turnOrder[((idx+offset)%n+n)%n]

		g.queryHandLocked(p, "Pass a card", false, "", func(responder *GamePlayer, c *card.Card) {
			responder.Hand, _ = removeCardByID(responder.Hand, c.ID)
			deliveries = append(deliveries, delivery{toID: toID, c: c})
			g.actionSyncLocked()
		})
	}

	g.onBarrier = func() {
		for _, d := range deliveries {
			if to, ok := g.findAny(d.toID); ok {
				to.Hand = append(to.Hand, d.c)
			}
		}
		g.updateTurnLocked(g.currentTurn + 1)
	}
	g.actionSyncLocked()
}

// startTradeLocked 交换：两阶段、顺序进行、双方均可拒绝。
// 任一方拒绝则整体中止：没有牌移动，回合不前进
func (g *GameRoom) startTradeLocked(actor, target *GamePlayer) {
	g.currentAction = ActionTrade
	actorID, targetID := actor.ID, target.ID

	abort := func() {
		log.Printf("🚫 房间 %s 的交换被拒绝，行动中止", g.code)
		g.currentAction = ""
		if p, ok := g.findAny(actorID); ok {
			p.Waiting = true
		}
		g.actionSyncLocked()
		g.syncLocked()
	}

	// 第一阶段：先询问交换目标
	g.queryHandLocked(target, "Trade a card", true, actorID, func(_ *GamePlayer, offered *card.Card) {
		if offered == nil {
			abort()
			return
		}
		offeredID := offered.ID

		// 第二阶段：目标接受后再询问发起者；第一阶段只选牌，不移牌
		actorNow, ok := g.findAny(actorID)
		if !ok {
			abort()
			return
		}
		g.queryHandLocked(actorNow, "Trade a card", true, targetID, func(responder *GamePlayer, returned *card.Card) {
			if returned == nil {
				abort()
				return
			}

			targetNow, ok := g.findAny(targetID)
			if !ok {
				abort()
				return
			}

			var offeredCard *card.Card
			targetNow.Hand, offeredCard = removeCardByID(targetNow.Hand, offeredID)
			if offeredCard == nil {
				abort()
				return
			}
			responder.Hand, _ = removeCardByID(responder.Hand, returned.ID)

			responder.Hand = append(responder.Hand, offeredCard)
			targetNow.Hand = append(targetNow.Hand, returned)

			log.Printf("🔄 房间 %s 完成一次交换: %s ↔ %s", g.code, responder.Name, targetNow.Name)
			g.updateTurnLocked(g.currentTurn + 1)
		})
		g.actionSyncLocked()
	})
	g.actionSyncLocked()
}

// handleUseLocked 使用注射器：即时结算，不发手牌请求
func (g *GameRoom) handleUseLocked(p *GamePlayer, cardID, targetType, targetID string) {
	if cardID == "" {
		p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "no card provided"))
		return
	}
	idx := slices.IndexFunc(p.Hand, func(c *card.Card) bool { return c.ID == cardID })
	if idx < 0 {
		p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidSelection, "could not find provided card"))
		return
	}
	syringe := p.Hand[idx]
	if !syringe.IsSyringe() {
		p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidSelection, "invalid card"))
		return
	}

	if targetType == "" {
		p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "no target type provided"))
		return
	}
	if targetType != "player" && targetType != "card" {
		p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "invalid target type"))
		return
	}
	if targetID == "" {
		p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeBadArgument, "no target id provided"))
		return
	}

	switch targetType {
	case "player":
		g.useOnPlayerLocked(p, syringe, targetID)
	case "card":
		g.useOnCardLocked(p, syringe, targetID)
	}
}

// useOnPlayerLocked 对玩家使用：随机抽走目标一张手牌，注射器塞进对方手里
func (g *GameRoom) useOnPlayerLocked(p *GamePlayer, syringe *card.Card, targetID string) {
	target, ok := g.findConnected(targetID)
	if !ok {
		p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidSelection, "could not find a player with id '"+targetID+"'"))
		return
	}
	if len(target.Hand) == 0 {
		p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidSelection, "target has no cards"))
		return
	}

	stolen := target.Hand[rand.IntN(len(target.Hand))]
	target.Hand, _ = removeCardByID(target.Hand, stolen.ID)
	p.Hand, _ = removeCardByID(p.Hand, syringe.ID)
	p.Hand = append(p.Hand, stolen)
	target.Hand = append(target.Hand, syringe)

	log.Printf("💉 玩家 %s 对玩家 %s 使用了注射器（房间 %s）", p.Name, target.Name, g.code)
	p.Waiting = false
	g.updateTurnLocked(g.currentTurn + 1)
}

// useOnCardLocked 对工作台的牌使用：注射器原位换走目标牌
func (g *GameRoom) useOnCardLocked(p *GamePlayer, syringe *card.Card, targetID string) {
	for _, id := range g.turnOrder {
		owner, ok := g.findAny(id)
		if !ok {
			continue
		}
		for i, c := range owner.Workstation {
			if c.ID != targetID {
				continue
			}

			p.Hand, _ = removeCardByID(p.Hand, syringe.ID)
			owner.Workstation[i] = syringe
			p.Hand = append(p.Hand, c)

			log.Printf("💉 玩家 %s 用注射器换走了 %s 工作台上的一张牌（房间 %s）", p.Name, owner.Name, g.code)
			p.Waiting = false
			g.updateTurnLocked(g.currentTurn + 1)
			return
		}
	}

	p.Client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidSelection, "could not find a workstation card with id '"+targetID+"'"))
}
