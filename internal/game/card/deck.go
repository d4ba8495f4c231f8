package card

import (
	"math/rand/v2"
	"slices"
)

// Deck 有序牌堆，items[0] 为堆顶
type Deck struct {
	items []*Card
}

// NewDeck 创建牌堆
func NewDeck(items ...*Card) *Deck {
	return &Deck{items: items}
}

// Add 将牌插入指定位置，越界位置会被收敛到两端
func (d *Deck) Add(c *Card, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(d.items) {
		index = len(d.items)
	}
	d.items = slices.Insert(d.items, index, c)
}

// Push 把牌放到堆顶
func (d *Deck) Push(c *Card) {
	d.Add(c, 0)
}

// Draw 从堆顶抽取 n 张
func (d *Deck) Draw(n int) []*Card {
	if n > len(d.items) {
		n = len(d.items)
	}
	drawn := d.items[:n:n]
	d.items = d.items[n:]
	return drawn
}

// Shuffle 均匀洗牌
func (d *Deck) Shuffle() {
	rand.Shuffle(len(d.items), func(i, j int) {
		d.items[i], d.items[j] = d.items[j], d.items[i]
	})
}

// Len 牌堆剩余数量
func (d *Deck) Len() int {
	return len(d.items)
}
