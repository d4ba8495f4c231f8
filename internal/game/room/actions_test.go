package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/antidote-server/internal/game/card"
	"github.com/palemoky/antidote-server/internal/protocol"
	"github.com/palemoky/antidote-server/internal/protocol/codec"
	"github.com/palemoky/antidote-server/internal/testutil"
)

// handIDs returns the ids of every card in the hand
func handIDs(p *GamePlayer) map[string]bool {
	ids := make(map[string]bool, len(p.Hand))
	for _, c := range p.Hand {
		ids[c.ID] = true
	}
	return ids
}

func TestGame_TurnSelectRejectsNonCurrentPlayer(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 3)

	var other *GamePlayer
	for _, p := range g.connected {
		if p.ID != g.turnOrder[g.currentTurn] {
			other = p
			break
		}
	}

	g.HandleMessage(other.ID, turnSelect(ActionDiscard))
	assert.Equal(t, protocol.ErrCodeNotYourTurn, lastErrorCode(t, clientOf(other.Player)))
	assert.Empty(t, g.currentAction)
}

func TestGame_TurnSelectRejectsWhileActionInFlight(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 3)
	actor := currentPlayer(t, g)

	g.HandleMessage(actor.ID, turnSelect(ActionDiscard))
	require.Equal(t, ActionDiscard, g.currentAction)

	g.HandleMessage(actor.ID, turnSelect(ActionDiscard))
	assert.Equal(t, protocol.ErrCodeActionInFlight, lastErrorCode(t, clientOf(actor.Player)))
}

func TestGame_PassDirectionIsValidated(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 3)
	actor := currentPlayer(t, g)

	g.HandleMessage(actor.ID, turnSelect(ActionPass))
	assert.Equal(t, protocol.ErrCodeBadArgument, lastErrorCode(t, clientOf(actor.Player)))

	g.HandleMessage(actor.ID, turnSelect(ActionPass, "up"))
	assert.Equal(t, protocol.ErrCodeBadArgument, lastErrorCode(t, clientOf(actor.Player)))
	assert.Empty(t, g.currentAction)
}

func TestGame_DiscardRound(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 3)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn
	handSize := len(actor.Hand)

	g.HandleMessage(actor.ID, turnSelect(ActionDiscard))

	// Everyone is asked and nobody may refuse
	for _, p := range g.connected {
		var q protocol.HandQueryPayload
		require.True(t, clientOf(p.Player).DecodeLastOfType(protocol.MsgHandQuery, &q))
		assert.Equal(t, "Discard a card", q.Message)
		assert.False(t, q.CanReject)
		assert.True(t, p.Waiting)
	}

	chosen := make(map[string]string)
	for _, p := range g.connected {
		chosen[p.ID] = p.Hand[0].ID
		g.HandleMessage(p.ID, pickCard(p.Hand[0].ID))
	}

	for _, p := range g.connected {
		assert.Len(t, p.Hand, handSize-1)
		require.Len(t, p.Workstation, 1)
		assert.Equal(t, chosen[p.ID], p.Workstation[0].ID)
	}

	assert.Empty(t, g.currentAction)
	assert.Equal(t, (startTurn+1)%3, g.currentTurn)
	assert.True(t, currentPlayer(t, g).Waiting)
}

func TestGame_DiscardBarrierWaitsForEveryResponse(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 3)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn

	g.HandleMessage(actor.ID, turnSelect(ActionDiscard))

	// Two of three respond; the turn must not advance yet
	g.HandleMessage(g.connected[0].ID, pickCard(g.connected[0].Hand[0].ID))
	g.HandleMessage(g.connected[1].ID, pickCard(g.connected[1].Hand[0].ID))
	assert.Equal(t, startTurn, g.currentTurn)
	assert.Equal(t, ActionDiscard, g.currentAction)
	assert.Equal(t, 1, g.outstanding)

	g.HandleMessage(g.connected[2].ID, pickCard(g.connected[2].Hand[0].ID))
	assert.Equal(t, (startTurn+1)%3, g.currentTurn)
}

func TestGame_MandatoryQueryCannotBeRejected(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 2)
	actor := currentPlayer(t, g)

	g.HandleMessage(actor.ID, turnSelect(ActionDiscard))

	g.HandleMessage(actor.ID, rejectQuery())
	assert.Equal(t, protocol.ErrCodeInvalidSelection, lastErrorCode(t, clientOf(actor.Player)))

	// The query is still pending and a valid answer completes it
	assert.Contains(t, g.pending, actor.ID)
	g.HandleMessage(actor.ID, pickCard(actor.Hand[0].ID))
	assert.NotContains(t, g.pending, actor.ID)
}

func TestGame_InvalidSelectionKeepsBarrierIntact(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 2)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn

	g.HandleMessage(actor.ID, turnSelect(ActionDiscard))
	require.Equal(t, 2, g.outstanding)

	g.HandleMessage(actor.ID, pickCard("bogus-card-id"))
	assert.Equal(t, protocol.ErrCodeInvalidSelection, lastErrorCode(t, clientOf(actor.Player)))
	assert.Equal(t, 2, g.outstanding)
	assert.Equal(t, startTurn, g.currentTurn)

	for _, p := range g.connected {
		g.HandleMessage(p.ID, pickCard(p.Hand[0].ID))
	}
	assert.Equal(t, (startTurn+1)%2, g.currentTurn)
}

func TestGame_HandResponseWithoutQuery(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 2)
	p := g.connected[0]

	g.HandleMessage(p.ID, pickCard(p.Hand[0].ID))
	assert.Equal(t, protocol.ErrCodeInvalidSelection, lastErrorCode(t, clientOf(p.Player)))
}

func TestGame_PassDeliversAfterBarrier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		direction string
		offset    int
	}{
		{"left", -1},
		{"right", 1},
	}
	for _, tc := range cases {
		t.Run(tc.direction, func(t *testing.T) {
			t.Parallel()

			g := newDealtGame(t, 3)
			actor := currentPlayer(t, g)
			handSize := len(actor.Hand)

			g.HandleMessage(actor.ID, turnSelect(ActionPass, tc.direction))

			// Record which card each seat gives away before anyone responds
			chosen := make(map[string]string)
			for _, p := range g.connected {
				chosen[p.ID] = p.Hand[0].ID
			}
			for _, p := range g.connected {
				g.HandleMessage(p.ID, pickCard(chosen[p.ID]))
			}

			// Each chosen card ends up with the neighbor in the pass direction
			n := len(g.turnOrder)
			for i, id := range g.turnOrder {
				receiver, ok := g.findAny(g.turnOrder[((i+tc.offset)%n+n)%n])
				require.True(t, ok)
				assert.True(t, handIDs(receiver)[chosen[id]])
			}
			for _, p := range g.connected {
				assert.Len(t, p.Hand, handSize, "pass conserves hand size")
			}
			assert.Empty(t, g.currentAction)
		})
	}
}

func TestGame_TradeSwapsCards(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 4)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn

	var target *GamePlayer
	for _, p := range g.connected {
		if p.ID != actor.ID {
			target = p
			break
		}
	}
	handSize := len(actor.Hand)

	g.HandleMessage(actor.ID, turnSelect(ActionTrade, target.ID))

	// Phase one asks only the target, and it may refuse
	var q protocol.HandQueryPayload
	require.True(t, clientOf(target.Player).DecodeLastOfType(protocol.MsgHandQuery, &q))
	assert.True(t, q.CanReject)
	assert.Equal(t, actor.ID, q.Destination)
	assert.Equal(t, 1, g.outstanding)

	offered := target.Hand[0].ID
	g.HandleMessage(target.ID, pickCard(offered))

	// Phase two asks the initiator
	require.True(t, clientOf(actor.Player).DecodeLastOfType(protocol.MsgHandQuery, &q))
	assert.True(t, q.CanReject)
	assert.Equal(t, target.ID, q.Destination)

	returned := actor.Hand[0].ID
	g.HandleMessage(actor.ID, pickCard(returned))

	assert.True(t, handIDs(actor)[offered])
	assert.False(t, handIDs(actor)[returned])
	assert.True(t, handIDs(target)[returned])
	assert.False(t, handIDs(target)[offered])
	assert.Len(t, actor.Hand, handSize)
	assert.Len(t, target.Hand, handSize)
	assert.Equal(t, (startTurn+1)%4, g.currentTurn)
}

func TestGame_TradeRejectedByTargetAborts(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 3)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn

	var target *GamePlayer
	for _, p := range g.connected {
		if p.ID != actor.ID {
			target = p
			break
		}
	}
	actorBefore := handIDs(actor)
	targetBefore := handIDs(target)

	g.HandleMessage(actor.ID, turnSelect(ActionTrade, target.ID))
	g.HandleMessage(target.ID, rejectQuery())

	assert.Equal(t, actorBefore, handIDs(actor))
	assert.Equal(t, targetBefore, handIDs(target))
	assert.Equal(t, startTurn, g.currentTurn, "a refused trade does not consume the turn")
	assert.Empty(t, g.currentAction)
	assert.True(t, actor.Waiting, "the initiator is back to choosing an action")
}

func TestGame_TradeRejectedByInitiatorAborts(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 3)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn

	var target *GamePlayer
	for _, p := range g.connected {
		if p.ID != actor.ID {
			target = p
			break
		}
	}
	targetBefore := handIDs(target)

	g.HandleMessage(actor.ID, turnSelect(ActionTrade, target.ID))
	g.HandleMessage(target.ID, pickCard(target.Hand[0].ID))
	g.HandleMessage(actor.ID, rejectQuery())

	// The offered card never left the target's hand
	assert.Equal(t, targetBefore, handIDs(target))
	assert.Equal(t, startTurn, g.currentTurn)
	assert.Empty(t, g.currentAction)
}

func TestGame_TradeTargetMustExist(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 2)
	actor := currentPlayer(t, g)

	g.HandleMessage(actor.ID, turnSelect(ActionTrade, "nobody"))
	assert.Equal(t, protocol.ErrCodeBadArgument, lastErrorCode(t, clientOf(actor.Player)))
	assert.Empty(t, g.currentAction)
}

func TestGame_TradeWithSelfIsRejected(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 2)
	actor := currentPlayer(t, g)

	g.HandleMessage(actor.ID, turnSelect(ActionTrade, actor.ID))
	assert.Equal(t, protocol.ErrCodeBadArgument, lastErrorCode(t, clientOf(actor.Player)))
	assert.Empty(t, g.currentAction)
	assert.Zero(t, g.outstanding)
}

func TestGame_UseSyringeOnPlayer(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 3)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn

	var target *GamePlayer
	for _, p := range g.connected {
		if p.ID != actor.ID {
			target = p
			break
		}
	}

	syringe := card.New(card.SuitSyringe, "")
	actor.Hand = append(actor.Hand, syringe)
	targetBefore := handIDs(target)
	targetSize := len(target.Hand)

	g.HandleMessage(actor.ID, turnSelect(ActionUse, syringe.ID, "player", target.ID))

	// The syringe lands in the target's hand, one random card comes back
	assert.True(t, handIDs(target)[syringe.ID])
	assert.False(t, handIDs(actor)[syringe.ID])
	assert.Len(t, target.Hand, targetSize)

	stolen := 0
	for id := range handIDs(actor) {
		if targetBefore[id] {
			stolen++
		}
	}
	assert.Equal(t, 1, stolen)
	assert.Equal(t, (startTurn+1)%3, g.currentTurn)
}

func TestGame_UseSyringeOnWorkstationCard(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 3)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn

	var owner *GamePlayer
	for _, p := range g.connected {
		if p.ID != actor.ID {
			owner = p
			break
		}
	}

	planted := card.New(card.FormulaSerumN, "2")
	owner.Workstation = append(owner.Workstation, planted)
	syringe := card.New(card.SuitSyringe, "")
	actor.Hand = append(actor.Hand, syringe)

	g.HandleMessage(actor.ID, turnSelect(ActionUse, syringe.ID, "card", planted.ID))

	// The syringe replaces the card in place
	require.Len(t, owner.Workstation, 1)
	assert.Equal(t, syringe.ID, owner.Workstation[0].ID)
	assert.True(t, handIDs(actor)[planted.ID])
	assert.False(t, handIDs(actor)[syringe.ID])
	assert.Equal(t, (startTurn+1)%3, g.currentTurn)
}

func TestGame_UseRequiresSyringe(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 2)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn

	var notSyringe *card.Card
	for _, c := range actor.Hand {
		if !c.IsSyringe() {
			notSyringe = c
			break
		}
	}
	require.NotNil(t, notSyringe)

	g.HandleMessage(actor.ID, turnSelect(ActionUse, notSyringe.ID, "player", g.connected[1].ID))
	assert.Equal(t, protocol.ErrCodeInvalidSelection, lastErrorCode(t, clientOf(actor.Player)))
	assert.Equal(t, startTurn, g.currentTurn)
}

func TestGame_UseValidatesTarget(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 2)
	actor := currentPlayer(t, g)
	syringe := card.New(card.SuitSyringe, "")
	actor.Hand = append(actor.Hand, syringe)

	g.HandleMessage(actor.ID, turnSelect(ActionUse, syringe.ID))
	assert.Equal(t, protocol.ErrCodeBadArgument, lastErrorCode(t, clientOf(actor.Player)))

	g.HandleMessage(actor.ID, turnSelect(ActionUse, syringe.ID, "deck", "x"))
	assert.Equal(t, protocol.ErrCodeBadArgument, lastErrorCode(t, clientOf(actor.Player)))

	g.HandleMessage(actor.ID, turnSelect(ActionUse, syringe.ID, "card", "missing"))
	assert.Equal(t, protocol.ErrCodeInvalidSelection, lastErrorCode(t, clientOf(actor.Player)))
}

func TestGame_ResyncRepeatsGameSync(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 2)
	p := g.connected[0]
	before := clientOf(p.Player).CountOfType(protocol.MsgGameSync)

	g.HandleMessage(p.ID, codec.MustNewMessage(protocol.MsgResync, nil))
	assert.Equal(t, before+1, clientOf(p.Player).CountOfType(protocol.MsgGameSync))
}

func TestGame_ReconnectedPlayerCanAnswerPendingQuery(t *testing.T) {
	t.Parallel()

	g := newDealtGame(t, 2)
	actor := currentPlayer(t, g)
	startTurn := g.currentTurn

	g.HandleMessage(actor.ID, turnSelect(ActionDiscard))

	var other *GamePlayer
	for _, p := range g.connected {
		if p.ID != actor.ID {
			other = p
			break
		}
	}
	otherID, otherName := other.ID, other.Name

	// Drop and rejoin mid-query; the pending query survives by player id
	g.RemovePlayer(otherID)
	_, err := g.AddPlayer(otherName, testutil.NewSimpleClient(otherName))
	require.NoError(t, err)

	rejoined, ok := g.findConnected(otherID)
	require.True(t, ok)

	g.HandleMessage(actor.ID, pickCard(actor.Hand[0].ID))
	g.HandleMessage(otherID, pickCard(rejoined.Hand[0].ID))

	assert.Len(t, rejoined.Workstation, 1)
	assert.Equal(t, (startTurn+1)%2, g.currentTurn)
}
