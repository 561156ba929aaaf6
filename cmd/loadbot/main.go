// Command loadbot opens a configurable number of raw TCP connections
// against a gridkeepd instance, performs the handshake tagged as a bot,
// and issues randomized Move/Turn packets at a fixed rate. It only speaks
// the wire protocol — no World or persistence internals.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gridkeep/server/internal/net/packet"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9001", "server address")
	count := flag.Int("count", 10, "number of bot connections")
	tokenStart := flag.Uint("token-start", 1, "first account_token; each bot uses token-start+i")
	duration := flag.Duration("duration", 30*time.Second, "how long each bot runs before disconnecting")
	movesPerSec := flag.Float64("rate", 2.0, "Move/Turn packets per second per bot")
	flag.Parse()

	var wg sync.WaitGroup
	for i := 0; i < *count; i++ {
		token := uint32(*tokenStart) + uint32(i)
		wg.Add(1)
		go func(token uint32) {
			defer wg.Done()
			if err := runBot(*addr, token, *duration, *movesPerSec); err != nil {
				log.Printf("bot token=%d: %v", token, err)
			}
		}(token)
	}
	wg.Wait()
	fmt.Fprintln(os.Stderr, "all bots finished")
}

func runBot(addr string, token uint32, duration time.Duration, movesPerSec float64) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	handshake := packet.EncodeHandshake(1, token)
	if err := writeFrame(conn, handshake); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}

	accepted, err := readFrame(conn)
	if err != nil {
		return fmt.Errorf("read handshake reply: %w", err)
	}
	if len(accepted) == 0 || accepted[0] != packet.SOpHandshakeAccepted {
		return fmt.Errorf("handshake rejected, opcode 0x%02x", firstByte(accepted))
	}
	if _, err := readFrame(conn); err != nil { // Welcome
		return fmt.Errorf("read welcome: %w", err)
	}

	stop := time.After(duration)
	interval := time.Duration(float64(time.Second) / movesPerSec)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(int64(token)))
	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			dir := byte(rng.Intn(4))
			var w *packet.Writer
			if rng.Intn(2) == 0 {
				w = packet.NewWriterWithOpcode(packet.COpMove)
				w.WriteC(dir)
				w.WriteC(dir)
			} else {
				w = packet.NewWriterWithOpcode(packet.COpTurn)
				w.WriteC(dir)
			}
			if err := writeFrame(conn, w.Bytes()); err != nil {
				return fmt.Errorf("send move/turn: %w", err)
			}
		}
	}
}

func firstByte(b []byte) byte {
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// writeFrame and readFrame duplicate the tiny framing format rather than
// import internal/net, which pulls in the full Connection/Server machinery
// this harness has no use for.
func writeFrame(conn net.Conn, payload []byte) error {
	header := make([]byte, 4, 4+len(payload))
	header[0], header[1] = 0x11, 0x68
	binary.BigEndian.PutUint16(header[2:4], uint16(len(payload)))
	_, err := conn.Write(append(header, payload...))
	return err
}

func readFrame(conn net.Conn) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := readFull(conn, header); err != nil {
		return nil, err
	}
	if header[0] != 0x11 || header[1] != 0x68 {
		return nil, fmt.Errorf("bad magic")
	}
	size := binary.BigEndian.Uint16(header[2:4])
	payload := make([]byte, size)
	if _, err := readFull(conn, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
