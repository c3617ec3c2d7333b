package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/pkg/wire"
)

// writeSession owns one locked sentence: the lock itself, the undo
// snapshot taken at acquisition, and the sentence array the edits
// accumulate in. The array, not the file, is what a commit persists, so
// edits never leak to disk before ETIRW. The session is destroyed (lock
// released, buffer discarded) on every exit path.
type writeSession struct {
	store     *Store
	name      string
	idx       int
	sentences []string
}

// Write runs one interactive write session over an established
// connection: validate the target sentence, lock it, snapshot the undo
// backup, then apply `<word_index> <content>` edits until ETIRW commits
// or the peer goes away. All protocol outcomes are written to w; the
// returned error reports transport failures only.
//
// Writing to a file that does not exist yet creates it, owned by user.
func (s *Store) Write(name string, sentence int, user string, r *bufio.Reader, w io.Writer) error {
	if err := checkName(name); err != nil {
		return writeReply(w, wire.ReplyCannotCreate(name))
	}

	if _, err := os.Stat(s.filePath(name)); os.IsNotExist(err) {
		if err := s.Create(name, user); err != nil && !errors.Is(err, ErrExists) {
			return writeReply(w, wire.ReplyCannotCreate(name))
		}
	}
	if err := s.CheckWrite(name, user); err != nil {
		return writeReply(w, wire.ReplyNoWritePermission(name))
	}

	content, err := os.ReadFile(s.filePath(name))
	if err != nil {
		return writeReply(w, wire.ReplyFileNotFoundOrOpen(name))
	}
	text := string(content)

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		if sentence != 0 {
			return writeReply(w, wire.ReplyEmptyFileOnlyZero)
		}
	} else if sentence < 0 || sentence > maxSentenceIndex(text) {
		return writeReply(w, wire.ReplyInvalidSentence(maxSentenceIndex(text), endsWithDelim(text)))
	}

	if err := s.locks.acquire(name, sentence, user); err != nil {
		if s.metrics != nil {
			s.metrics.RecordLockConflict()
		}
		return writeReply(w, wire.ReplySentenceIsLocked(sentence))
	}
	session := uuid.NewString()
	logger.Debug("write session opened",
		"session_id", session, "server_id", s.id, "file", name, "sentence", sentence, "user", user)
	defer func() {
		s.locks.release(name, sentence)
		logger.Debug("write session closed", "session_id", session, "file", name, "sentence", sentence)
		if s.metrics != nil {
			s.metrics.SetActiveWriteSessions(s.locks.count())
		}
	}()
	if s.metrics != nil {
		s.metrics.SetActiveWriteSessions(s.locks.count())
	}

	// Bistate undo: the pre-session content becomes the backup, best
	// effort like touchAccess.
	_ = s.snapshotUndo(name)

	// Editing one past the last sentence (or sentence 0 of an empty
	// file) works on a fresh empty slot.
	if sentence == len(sentences) {
		sentences = append(sentences, "")
	}
	sess := &writeSession{store: s, name: name, idx: sentence, sentences: sentences}

	if err := writeReply(w, wire.ReplySentenceLocked(sentence)); err != nil {
		return err
	}

	for {
		line, readErr := r.ReadString('\n')
		trimmed := strings.TrimSpace(line)

		if trimmed == "" && readErr != nil {
			// Peer closed without committing: the deferred release
			// drops the lock and the buffer dies with the session.
			return nil
		}
		if trimmed == "ETIRW" {
			return writeReply(w, sess.commit())
		}
		if trimmed != "" || readErr == nil {
			if err := writeReply(w, sess.edit(trimmed)); err != nil {
				return err
			}
		}
		if readErr != nil {
			return nil
		}
	}
}

// edit applies one `<word_index> <content>` line to the working sentence
// and returns the reply to send. Content that introduces sentence
// delimiters splits the working sentence: the session keeps the first
// fragment and the rest shift the tail of the array right.
func (ws *writeSession) edit(line string) string {
	idxStr, text, ok := strings.Cut(line, " ")
	if !ok {
		return wire.ReplyInvalidWriteFormat
	}
	wi, err := strconv.Atoi(idxStr)
	if err != nil {
		return wire.ReplyInvalidWriteFormat
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return wire.ReplyInvalidWriteFormat
	}

	working, ok := insertWords(ws.sentences[ws.idx], wi, text)
	if !ok {
		return wire.ReplyWordIndexOutOfRange
	}
	if frags := splitSentences(working); len(frags) > 1 {
		working = frags[0]
		ws.sentences = slices.Insert(ws.sentences, ws.idx+1, frags[1:]...)
	}
	ws.sentences[ws.idx] = working
	return wire.ReplyUpdateApplied
}

// commit persists the session's sentence array, joined with single
// spaces. An empty working sentence persists as ".". The per-file write
// mutex keeps concurrent commits on other sentences from tearing the
// rewrite.
func (ws *writeSession) commit() string {
	if ws.sentences[ws.idx] == "" {
		ws.sentences[ws.idx] = "."
	}
	content := joinSentences(ws.sentences)

	mu := ws.store.writeMu.get(ws.name)
	mu.Lock()
	err := os.WriteFile(ws.store.filePath(ws.name), []byte(content), 0o644)
	mu.Unlock()
	if err != nil {
		return wire.ReplyUnableToSave
	}

	if m := ws.store.metrics; m != nil {
		m.RecordBytesTransferred(wire.VerbWrite, "received", uint64(len(content)))
	}
	return wire.ReplyWriteSuccessful
}

// writeReply sends one reply string, normalizing the (io.Writer, error)
// shape session code deals in.
func writeReply(w io.Writer, reply string) error {
	if reply == "" {
		return nil
	}
	if _, err := io.WriteString(w, reply); err != nil {
		return fmt.Errorf("failed to write reply: %w", err)
	}
	return nil
}
