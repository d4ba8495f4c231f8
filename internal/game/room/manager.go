package room

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/palemoky/antidote-server/internal/apperrors"
	"github.com/palemoky/antidote-server/internal/protocol"
	"github.com/palemoky/antidote-server/internal/protocol/codec"
	"github.com/palemoky/antidote-server/internal/server/storage"
	"github.com/palemoky/antidote-server/internal/types"
)

// Manager 房间管理器：以房间号索引当前阶段，阶段切换时原地替换
type Manager struct {
	mu    sync.Mutex
	rooms map[string]Stage

	countdown time.Duration
	store     *storage.RedisStore // 可为 nil，所有写入均为尽力而为
}

// NewManager 创建房间管理器
func NewManager(countdown time.Duration, store *storage.RedisStore) *Manager {
	return &Manager{
		rooms:     make(map[string]Stage),
		countdown: countdown,
		store:     store,
	}
}

// RegisterConnection 把新连接接入房间（不存在则创建大厅房间），
// 返回分配的玩家 id；加入失败时负责通知并关闭连接
func (m *Manager) RegisterConnection(code, name string, client types.ClientInterface) (string, error) {
	m.mu.Lock()

	stage, ok := m.rooms[code]
	if !ok {
		lobby := NewLobbyRoom(code, m.countdown)
		m.attachLocked(lobby)
		m.rooms[code] = lobby
		stage = lobby
	}

	playerID, err := stage.AddPlayer(name, client)
	m.mu.Unlock()

	if err != nil {
		log.Printf("⚠️ 玩家 %s 加入房间 %s 失败: %v", name, code, err)
		var gameErr *apperrors.GameError
		if errors.As(err, &gameErr) {
			sendError(client, gameErr)
		} else {
			client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnknown))
		}
		client.Close()
		return "", err
	}

	client.OnClose(func() {
		m.handleDisconnect(code, playerID)
	})

	m.mirror(stage)
	return playerID, nil
}

// HandleMessage 把入站消息路由给玩家所在的房间
func (m *Manager) HandleMessage(code, playerID string, client types.ClientInterface, msg *protocol.Message) {
	m.mu.Lock()
	stage, ok := m.rooms[code]
	m.mu.Unlock()

	if !ok {
		sendError(client, apperrors.ErrRoomNotFound)
		return
	}

	stage.HandleMessage(playerID, msg)
	m.mirror(stage)
}

// RoomSnapshot 导出指定房间的名册快照
func (m *Manager) RoomSnapshot(code string) (*Snapshot, bool) {
	m.mu.Lock()
	stage, ok := m.rooms[code]
	m.mu.Unlock()

	if !ok {
		return nil, false
	}
	return stage.Snapshot(), true
}

// RoomCount 当前活跃房间数
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// handleDisconnect 连接关闭：把玩家移入断线名册
func (m *Manager) handleDisconnect(code, playerID string) {
	m.mu.Lock()
	stage, ok := m.rooms[code]
	m.mu.Unlock()

	if !ok {
		return
	}

	stage.RemovePlayer(playerID)

	m.mu.Lock()
	_, alive := m.rooms[code]
	m.mu.Unlock()
	if alive {
		m.mirror(stage)
	}
}

// attachLocked 给阶段挂上生命周期回调；每次阶段切换后重新挂接
func (m *Manager) attachLocked(stage Stage) {
	code := stage.Code()

	stage.SetHooks(
		func() {
			m.mu.Lock()
			// 只回收仍由自己占据房间号的阶段，避免误删已切换的新阶段
			if m.rooms[code] == stage {
				delete(m.rooms, code)
				log.Printf("🧹 房间 %s 已无在线玩家，回收", code)
			}
			m.mu.Unlock()

			if m.store != nil {
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
					defer cancel()
					if err := m.store.DeleteRoom(ctx, code); err != nil {
						log.Printf("⚠️ 删除房间 %s 的 Redis 镜像失败: %v", code, err)
					}
				}()
			}
		},
		func(next Stage) {
			m.mu.Lock()
			m.rooms[code] = next
			m.attachLocked(next)
			m.mu.Unlock()

			log.Printf("🔁 房间 %s 切换到 %T", code, next)
			m.mirror(next)

			if _, isGame := next.(*GameRoom); isGame && m.store != nil {
				snap := next.Snapshot()
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
					defer cancel()
					for _, p := range snap.Players {
						if err := m.store.IncrGamesDealt(ctx, p.Name); err != nil {
							log.Printf("⚠️ 更新玩家 %s 的开局统计失败: %v", p.Name, err)
						}
					}
				}()
			}

			next.Ready()
		},
	)
}

// mirror 尽力而为地把房间名册镜像到 Redis
func (m *Manager) mirror(stage Stage) {
	if m.store == nil {
		return
	}

	snap := stage.Snapshot()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		players := make([]storage.PlayerData, 0, len(snap.Players))
		for _, p := range snap.Players {
			players = append(players, storage.PlayerData{ID: p.ID, Name: p.Name, Connected: p.Connected})
		}
		err := m.store.SaveRoom(ctx, &storage.RoomData{
			Code:    snap.Code,
			Stage:   snap.Stage,
			Players: players,
			SavedAt: time.Now().UnixMilli(),
		})
		if err != nil {
			log.Printf("⚠️ 保存房间 %s 的 Redis 镜像失败: %v", snap.Code, err)
		}
	}()
}
