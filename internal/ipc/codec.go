package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxLineBytes bounds one message. Typed answers travel in Request.Arg.
const maxLineBytes = 64 << 10

var errLineTooLong = errors.New("message exceeds 64 KiB")

func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// readLine decodes the next newline-terminated JSON value into v.
func readLine(r *bufio.Reader, v any) error {
	var line []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return errLineTooLong
		}
		if !isPrefix {
			break
		}
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
