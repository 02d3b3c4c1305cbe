// Package ipc 通过unix socket把当前歌词行广播给显示端。
// 锁文件保证同一台机器只有一个后台实例。
package ipc

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "ipc").Logger()

// Server unix socket广播服务
type Server struct {
	socketPath      string
	listener        net.Listener
	clientConns     map[net.Conn]struct{}
	clientConnsLock sync.Mutex
	currentLine     string
	lineLock        sync.Mutex
	lockFile        *os.File
	lockFilePath    string
}

// NewServer 创建广播服务
func NewServer(socketPath string) *Server {
	return &Server{
		socketPath:   socketPath,
		clientConns:  make(map[net.Conn]struct{}),
		lockFilePath: socketPath + ".lock",
	}
}

// checkAndCleanOldLock 清理残留的锁文件。上一个实例崩溃时锁文件会留下，
// 只要其中的进程已不存在就可以安全删除。
func (s *Server) checkAndCleanOldLock() {
	if _, err := os.Stat(s.lockFilePath); os.IsNotExist(err) {
		return
	}

	content, err := os.ReadFile(s.lockFilePath)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		logger.Warn().Str("pid_str", pidStr).Msg("invalid pid in lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	// kill(pid, 0)只检查进程存在性，不发送信号
	if syscall.Kill(pid, 0) != nil {
		logger.Info().Int("old_pid", pid).Msg("stale lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	logger.Info().Int("existing_pid", pid).Msg("another instance is still running")
}

func (s *Server) acquireLock() error {
	s.checkAndCleanOldLock()

	file, err := os.OpenFile(s.lockFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK {
			return fmt.Errorf("another lyrics backend instance is already running")
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if _, err := file.WriteString(fmt.Sprintf("%d\n", os.Getpid())); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return fmt.Errorf("failed to write pid to lock file: %w", err)
	}

	s.lockFile = file
	logger.Info().Str("lock_file", s.lockFilePath).Int("pid", os.Getpid()).Msg("acquired process lock")
	return nil
}

func (s *Server) releaseLock() {
	if s.lockFile != nil {
		syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN)
		s.lockFile.Close()
		os.Remove(s.lockFilePath)
		s.lockFile = nil
	}
}

// Start 获取进程锁并开始监听
func (s *Server) Start() error {
	if err := s.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		s.releaseLock()
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.releaseLock()
		return err
	}
	s.listener = listener

	logger.Info().Str("socket_path", s.socketPath).Msg("ipc server listening")

	go s.acceptConnections()
	return nil
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			logger.Error().Err(err).Msg("failed to accept connection")
			return
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	s.clientConnsLock.Lock()
	s.clientConns[conn] = struct{}{}
	s.clientConnsLock.Unlock()

	logger.Info().Msg("display client connected")

	// 新客户端先收到当前行，不用等下一次索引变化
	s.lineLock.Lock()
	line := s.currentLine
	s.lineLock.Unlock()
	if line != "" {
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			logger.Error().Err(err).Msg("failed to send current line")
		}
	}

	buf := make([]byte, 1)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}

	s.clientConnsLock.Lock()
	delete(s.clientConns, conn)
	s.clientConnsLock.Unlock()
	conn.Close()
	logger.Info().Msg("display client disconnected")
}

// Broadcast 把一行歌词发给所有连接的客户端，按行分帧
func (s *Server) Broadcast(line string) {
	s.lineLock.Lock()
	s.currentLine = line
	s.lineLock.Unlock()

	s.clientConnsLock.Lock()
	defer s.clientConnsLock.Unlock()

	payload := []byte(line + "\n")
	for conn := range s.clientConns {
		if _, err := conn.Write(payload); err != nil {
			logger.Error().Err(err).Msg("failed to write to client, removing")
			conn.Close()
			delete(s.clientConns, conn)
		}
	}
}

// Close 停止监听并释放进程锁
func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.releaseLock()
}
