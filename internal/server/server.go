package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/antidote-server/internal/config"
	"github.com/palemoky/antidote-server/internal/game/room"
	"github.com/palemoky/antidote-server/internal/protocol"
	"github.com/palemoky/antidote-server/internal/protocol/codec"
	"github.com/palemoky/antidote-server/internal/server/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源，生产环境需要限制
	},
}

// Server WebSocket 服务器
type Server struct {
	config  *config.Config
	redis   *redis.Client
	store   *storage.RedisStore
	manager *room.Manager

	httpServer *http.Server

	clients   map[*Client]struct{}
	clientsMu sync.Mutex
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		config:  cfg,
		clients: make(map[*Client]struct{}),
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}

		s.redis = rdb
		s.store = storage.NewRedisStore(rdb)
	}

	s.manager = room.NewManager(cfg.LobbyCountdownDuration(), s.store)
	return s, nil
}

// Manager 暴露房间管理器（测试用）
func (s *Server) Manager() *room.Manager {
	return s.manager
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	log.Printf("🚀 服务器启动在 ws://%s/ws", addr)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		IdleTimeout:       90 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// handleWebSocket 接受新连接：握手参数校验 → 升级 → 接入房间
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket 升级失败: %v", err)
		return
	}

	name := r.URL.Query().Get("name")
	code := r.URL.Query().Get("code")
	if name == "" || code == "" {
		log.Printf("⚠️ 握手参数缺失（IP %s）", r.RemoteAddr)
		data, _ := codec.Encode(codec.NewErrorMessage(protocol.ErrCodeBadHandshake))
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, data)
		conn.Close()
		return
	}

	client := NewClient(conn, r.RemoteAddr)
	go client.WritePump()

	playerID, err := s.manager.RegisterConnection(code, name, client)
	if err != nil {
		// RegisterConnection 已通知并关闭连接
		return
	}
	client.RoomCode = code
	client.PlayerID = playerID

	s.register(client)
	log.Printf("✅ 玩家 %s 已连接（房间 %s，IP %s）", name, code, client.IP)

	go func() {
		client.ReadPump(func(msg *protocol.Message) {
			s.manager.HandleMessage(code, playerID, client, msg)
		})
		s.unregister(client)
	}()
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","rooms":%d,"connections":%d}`, s.manager.RoomCount(), s.connectionCount())
}

// Shutdown 优雅关闭：停止接受新连接并关闭现有连接
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("🛑 服务器关闭中...")

	s.clientsMu.Lock()
	for c := range s.clients {
		c.Close()
	}
	s.clientsMu.Unlock()

	if s.redis != nil {
		s.redis.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) register(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Server) unregister(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, c)
}

func (s *Server) connectionCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}
