//go:build !production

package testutil

import (
	"encoding/json"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/antidote-server/internal/protocol"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) OnClose(fn func()) {
	m.Called(fn)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient 简单的 mock 客户端，不使用 testify（用于不需要断言的测试）。
// 记录收到的每条消息，并模拟连接关闭回调
type SimpleClient struct {
	Name string

	mu       sync.Mutex
	messages []*protocol.Message
	onClose  func()
	closed   bool
}

// NewSimpleClient 创建记录型 mock 客户端
func NewSimpleClient(name string) *SimpleClient {
	return &SimpleClient{Name: name}
}

func (m *SimpleClient) SendMessage(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *SimpleClient) OnClose(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = fn
}

func (m *SimpleClient) Close() {
	m.Disconnect()
}

// Disconnect 模拟连接断开，触发一次关闭回调
func (m *SimpleClient) Disconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	fn := m.onClose
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Messages 返回收到的所有消息副本
func (m *SimpleClient) Messages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*protocol.Message(nil), m.messages...)
}

// LastMessage 返回最近一条消息，没有则返回 nil
func (m *SimpleClient) LastMessage() *protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

// LastOfType 返回最近一条指定类型的消息，没有则返回 nil
func (m *SimpleClient) LastOfType(t protocol.MessageType) *protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Type == t {
			return m.messages[i]
		}
	}
	return nil
}

// CountOfType 统计指定类型消息的数量
func (m *SimpleClient) CountOfType(t protocol.MessageType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.Type == t {
			n++
		}
	}
	return n
}

// DecodeLastOfType 把最近一条指定类型消息的负载解码到 v，没有则返回 false
func (m *SimpleClient) DecodeLastOfType(t protocol.MessageType, v any) bool {
	msg := m.LastOfType(t)
	if msg == nil {
		return false
	}
	return json.Unmarshal(msg.Payload, v) == nil
}

// Reset 清空已记录的消息
func (m *SimpleClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
