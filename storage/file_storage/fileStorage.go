package file_storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/fslock"

	"github.com/q3xlabs/q3x/storage"
)

var (
	_ storage.Storage      = (*FileStorage)(nil)
	_ storage.WalletReader = (*FileStorage)(nil)
)

const (
	defaultLockFile = "/tmp/q3x_storage_lock"

	maxLineSize = 4 * 1024 * 1024
)

// FileStorage is an append-only journal, one JSON message per line.
// The line number of a message is its offset.
type FileStorage struct {
	// mu orders writers of this process, lockFile guards the file against other processes
	mu       sync.Mutex
	lockFile *fslock.Lock
	dataFile *os.File

	// next offset, valid while the file still has size bytes
	next uint64
	size int64
}

// NewFileStorage opens (or creates) the journal at filename. The lock file
// defaults to a shared path under /tmp when lockFilename is empty.
func NewFileStorage(filename string, lockFilename ...string) (*FileStorage, error) {
	lockPath := defaultLockFile
	if len(lockFilename) > 0 && lockFilename[0] != "" {
		lockPath = lockFilename[0]
	}

	dataFile, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", filename, err)
	}

	return &FileStorage{
		lockFile: fslock.New(lockPath),
		dataFile: dataFile,
		size:     -1,
	}, nil
}

func (fs *FileStorage) lock() error {
	fs.mu.Lock()
	if err := fs.lockFile.Lock(); err != nil {
		fs.mu.Unlock()
		return fmt.Errorf("failed to lock journal: %w", err)
	}
	return nil
}

func (fs *FileStorage) unlock() {
	_ = fs.lockFile.Unlock()
	fs.mu.Unlock()
}

// nextOffset returns the offset of the next message. Lines are counted again
// only when someone else appended since the last write of this process.
func (fs *FileStorage) nextOffset() (uint64, error) {
	info, err := fs.dataFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat journal: %w", err)
	}
	if info.Size() == fs.size {
		return fs.next, nil
	}

	var count uint64
	if err = fs.scan(func(_ []byte) (bool, error) {
		count++
		return true, nil
	}); err != nil {
		return 0, err
	}

	fs.next, fs.size = count, info.Size()
	return count, nil
}

// scan feeds every line of the journal to fn until fn returns false
func (fs *FileStorage) scan(fn func(line []byte) (bool, error)) error {
	if _, err := fs.dataFile.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind journal: %w", err)
	}

	scanner := bufio.NewScanner(fs.dataFile)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	for scanner.Scan() {
		more, err := fn(scanner.Bytes())
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	return nil
}

// Send appends msgs in order, filling in their offsets and missing ids in place
func (fs *FileStorage) Send(msgs ...storage.Message) error {
	if err := fs.lock(); err != nil {
		return err
	}
	defer fs.unlock()

	offset, err := fs.nextOffset()
	if err != nil {
		return err
	}

	for i := range msgs {
		if msgs[i].ID == "" {
			msgs[i].ID = uuid.New().String()
		}
		msgs[i].Offset = offset

		data, err := json.Marshal(msgs[i])
		if err != nil {
			return fmt.Errorf("failed to marshal message %s: %w", msgs[i].ID, err)
		}
		n, err := fs.dataFile.Write(append(data, '\n'))
		if err != nil {
			// the cached offset cannot be trusted after a partial write
			fs.size = -1
			return fmt.Errorf("failed to append message %s: %w", msgs[i].ID, err)
		}

		offset++
		fs.next, fs.size = offset, fs.size+int64(n)
	}
	return nil
}

// GetMessages returns the messages starting at offset
func (fs *FileStorage) GetMessages(offset uint64) ([]storage.Message, error) {
	return fs.read(offset, func(storage.Message) bool { return true })
}

// GetWalletMessages returns the messages of walletID starting at offset
func (fs *FileStorage) GetWalletMessages(walletID string, offset uint64) ([]storage.Message, error) {
	return fs.read(offset, func(m storage.Message) bool { return m.WalletID == walletID })
}

func (fs *FileStorage) read(offset uint64, keep func(storage.Message) bool) ([]storage.Message, error) {
	if err := fs.lock(); err != nil {
		return nil, err
	}
	defer fs.unlock()

	var (
		msgs []storage.Message
		line uint64
	)
	err := fs.scan(func(row []byte) (bool, error) {
		line++
		if line <= offset {
			return true, nil
		}

		var m storage.Message
		if err := json.Unmarshal(row, &m); err != nil {
			return false, fmt.Errorf("failed to unmarshal journal line %d: %w", line-1, err)
		}
		if keep(m) {
			msgs = append(msgs, m)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (fs *FileStorage) Close() error {
	return fs.dataFile.Close()
}
