package transport

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/protocol"
)

// Compile-time check to ensure StdioTransport implements Transport
var _ Transport = (*StdioTransport)(nil)

// StdioTransport implements communication over a reader/writer pair,
// normally standard input and output
type StdioTransport struct {
	reader *bufio.Reader
	mu     sync.Mutex
	writer *bufio.Writer
}

// NewStdioTransport creates a new transport that uses stdin/stdout
func NewStdioTransport() *StdioTransport {
	return NewStreamTransport(os.Stdin, os.Stdout)
}

// NewStreamTransport creates a transport over arbitrary streams
func NewStreamTransport(r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{
		reader: bufio.NewReader(r),
		writer: bufio.NewWriter(w),
	}
}

// ReadRequest reads the next JSON object from the input
func (t *StdioTransport) ReadRequest() (*protocol.JsonRpcRequest, error) {
	logger.Debug("Waiting for request...")

	raw, err := t.readObject()
	if err != nil {
		if err == io.EOF {
			logger.Info("Received EOF, client disconnected")
		}
		return nil, err
	}
	logger.Debug("Received raw request:", raw)

	request, err := protocol.ParseJsonRpcRequest([]byte(raw))
	if err != nil {
		logger.Warn("Failed to parse JSON-RPC request:", err)
		return nil, &protocol.JsonRpcError{Code: protocol.ErrParse, Message: err.Error()}
	}
	return request, nil
}

// readObject collects bytes until the outermost brace closes.
// Braces inside string literals are ignored.
func (t *StdioTransport) readObject() (string, error) {
	var data []byte
	var depth int
	var inString, escapeNext bool

	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			if err == io.EOF && strings.TrimSpace(string(data)) != "" {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		// skip separators between messages
		if depth == 0 && b != '{' {
			continue
		}
		data = append(data, b)

		if inString {
			switch {
			case escapeNext:
				escapeNext = false
			case b == '\\':
				escapeNext = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(string(data)), nil
			}
		}
	}
}

// WriteResponse writes one JSON-RPC response followed by a newline
func (t *StdioTransport) WriteResponse(response *protocol.JsonRpcResponse) error {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal response:", err)
		return err
	}
	responseBytes = append(responseBytes, '\n')

	logger.Debug("Sending response:", string(responseBytes))

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.writer.Write(responseBytes); err != nil {
		logger.Error("Failed to write response:", err)
		return err
	}
	if err := t.writer.Flush(); err != nil {
		logger.Error("Failed to flush response:", err)
		return err
	}
	return nil
}
