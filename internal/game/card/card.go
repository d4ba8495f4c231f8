package card

import (
	"github.com/google/uuid"
)

// 配方花色
const (
	FormulaBootheide = "bootheide"
	FormulaC9Tonic   = "c9_tonic"
	FormulaMXVile    = "mx_vile"
	FormulaOslersOil = "oslers_oil"
	FormulaRubiximab = "rubiximab"
	FormulaSerumN    = "serum_n"
	FormulaW2Rose    = "w2_rose"
	FormulaAgentU    = "agent_u" // 仅 7 人局加入
)

// SuitSyringe 注射器花色
const SuitSyringe = "syringe"

// MarkerValue 标记牌的牌面值
const MarkerValue = "x"

// BaseFormulas 返回基础配方集合（不含 agent_u）
func BaseFormulas() []string {
	return []string{
		FormulaBootheide,
		FormulaC9Tonic,
		FormulaMXVile,
		FormulaOslersOil,
		FormulaRubiximab,
		FormulaSerumN,
		FormulaW2Rose,
	}
}

// Card 一张牌；发牌时创建，此后不可变，只会在手牌/工作台/牌堆之间移动
type Card struct {
	ID    string
	Suit  string
	Value string
}

// New 创建一张牌
func New(suit, value string) *Card {
	return &Card{
		ID:    uuid.NewString(),
		Suit:  suit,
		Value: value,
	}
}

// IsMarker 是否为 "x" 标记牌
func (c *Card) IsMarker() bool {
	return c.Value == MarkerValue
}

// IsSyringe 是否为注射器
func (c *Card) IsSyringe() bool {
	return c.Suit == SuitSyringe
}
