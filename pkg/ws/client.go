package ws

import (
	"bytes"
	"compress/zlib"
	"errors"
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

type MessageInfo struct {
	msg             []byte
	needCompression bool
}

type Client struct {
	Conn *websocket.Conn

	// R receives every text message read from the connection. It is closed
	// when the connection is closed.
	R chan []byte

	channel string
	send    chan MessageInfo
	once    sync.Once
}

func NewClient(conn *websocket.Conn) *Client {
	if conn == nil {
		return nil
	}

	c := &Client{
		Conn: conn,
		R:    make(chan []byte, 128),
		send: make(chan MessageInfo, 128),
	}

	go c.runReader()
	go c.runWriter()
	return c
}

func (c *Client) runReader() {
	defer close(c.R)

	for {
		t, msg, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}

		if t == websocket.CloseMessage {
			return
		}

		if t == websocket.TextMessage {
			c.R <- msg
		}

		if t == websocket.BinaryMessage {
			originMsg, err := Decompress(msg)
			if err != nil {
				continue
			}

			c.R <- originMsg
		}
	}
}

func (c *Client) runWriter() {
	for msgInfo := range c.send {
		msg := msgInfo.msg
		messageType := websocket.TextMessage
		if msgInfo.needCompression {
			var err error
			msg, err = Compress(msgInfo.msg)
			if err != nil {
				continue
			}
			messageType = websocket.BinaryMessage
		}

		if err := c.Conn.WriteMessage(messageType, msg); err != nil {
			return
		}
	}
}

// Write queues a message for this connection. It returns an error instead
// of panicking if the connection is already closed.
func (c *Client) Write(msg []byte, needCompression bool) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if s, ok := r.(string); ok {
			err = errors.New(s)
		} else {
			err = errors.New("connection is closed")
		}
	}()

	c.send <- MessageInfo{msg: msg, needCompression: needCompression}
	return nil
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.Conn.Close()
		close(c.send)
	})
}

func Compress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	w := zlib.NewWriter(buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	w.Close()
	return buf.Bytes(), nil
}

func Decompress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
