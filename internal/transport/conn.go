package transport

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

const writeTimeout = 5 * time.Second

// Conn is one client connection speaking the line protocol. A single reader
// goroutine feeds the Lines channel, so any number of session goroutines can
// take turns consuming input by selecting on it; the channel is closed when
// the peer disconnects.
type Conn struct {
	id    int64
	nc    net.Conn
	lines chan string
	done  chan struct{}

	wmu  sync.Mutex
	once sync.Once
}

func New(id int64, nc net.Conn) *Conn {
	c := &Conn{
		id:    id,
		nc:    nc,
		lines: make(chan string, 8),
		done:  make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.lines)
	r := bufio.NewReader(c.nc)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			select {
			case c.lines <- strings.TrimRight(line, "\r\n"):
			case <-c.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (c *Conn) ID() int64 {
	return c.id
}

// Lines yields one ready client line per receive, trimmed of the terminator.
// A closed channel means the client disconnected.
func (c *Conn) Lines() <-chan string {
	return c.lines
}

// Send writes one framed message. The text is newline-terminated on the wire
// if it is not already.
func (c *Conn) Send(text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.nc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if _, err := c.nc.Write([]byte(text)); err != nil {
		return fmt.Errorf("writing to conn %d: %w", c.id, err)
	}
	return nil
}

func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.nc.Close()
	})
	return err
}

// Table is the registry of live connections, keyed by connection id.
type Table struct {
	mu    sync.Mutex
	conns map[int64]*Conn
}

func NewTable() *Table {
	return &Table{
		conns: make(map[int64]*Conn),
	}
}

func (t *Table) Add(c *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[c.id] = c
}

func (t *Table) Get(id int64) *Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[id]
}

func (t *Table) Remove(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, id)
}

// Each calls fn for every live connection, outside the table lock so fn may
// send.
func (t *Table) Each(fn func(*Conn)) {
	t.mu.Lock()
	list := make([]*Conn, 0, len(t.conns))
	for _, c := range t.conns {
		list = append(list, c)
	}
	t.mu.Unlock()
	for _, c := range list {
		fn(c)
	}
}

func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}
