package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/internal/telemetry"
	"github.com/quillfs/quillfs/pkg/wire"
)

// Dispatch reads one command envelope from r and serves it, writing every
// reply to w. A connection carries exactly one command; WRITE keeps
// reading r for its interactive session. The returned error reports
// transport and framing failures only; protocol outcomes are reply lines.
//
// Credentials on forwarded envelopes are trusted: the name server has
// already authenticated the user, so only the username participates in
// access checks here.
func (s *Store) Dispatch(ctx context.Context, r *bufio.Reader, w io.Writer) error {
	env, err := wire.ReadEnvelope(r)
	if err != nil {
		return fmt.Errorf("failed to read command envelope: %w", err)
	}

	cmd := wire.ParseCommand(env.Cmd)
	logger.Debug("dispatching command", "verb", cmd.Verb, "user", env.User, "server_id", s.id)

	ctx, span := telemetry.StartStorageSpan(ctx, cmd.Verb,
		telemetry.Username(env.User), telemetry.ServerID(s.id))
	defer span.End()

	start := time.Now()
	rec := &replyRecorder{w: w}
	err = s.serve(ctx, env.User, cmd, r, rec)
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	if s.metrics != nil {
		s.metrics.RecordOperation(cmd.Verb, time.Since(start), rec.errorReply)
	}
	return err
}

func (s *Store) serve(ctx context.Context, user string, cmd wire.Command, r *bufio.Reader, w io.Writer) error {
	switch cmd.Verb {
	case wire.VerbView:
		return s.serveView(user, cmd, w)
	case wire.VerbRead:
		return s.serveRead(user, cmd, w)
	case wire.VerbCreate:
		return s.serveCreate(user, cmd, w)
	case wire.VerbDelete:
		return s.serveDelete(user, cmd, w)
	case wire.VerbWrite:
		return s.serveWrite(user, cmd, r, w)
	case wire.VerbInfo:
		return s.serveInfo(user, cmd, w)
	case wire.VerbStream:
		return s.serveStream(ctx, user, cmd, w)
	case wire.VerbUndo:
		return s.serveUndo(user, cmd, w)
	case wire.VerbCheckpoint:
		return s.serveCheckpoint(user, cmd, w)
	case wire.VerbViewCheckpoint:
		return s.serveViewCheckpoint(user, cmd, w)
	case wire.VerbRevert:
		return s.serveRevert(user, cmd, w)
	case wire.VerbListCheckpoints:
		return s.serveListCheckpoints(user, cmd, w)
	case wire.VerbAddAccess:
		return s.serveAddAccess(user, cmd, w)
	case wire.VerbRemAccess:
		return s.serveRemAccess(user, cmd, w)
	default:
		return writeReply(w, wire.ReplyInvalidCommand)
	}
}

func (s *Store) serveView(user string, cmd wire.Command, w io.Writer) error {
	listing, err := s.ViewListing(user, wire.ParseViewFlags(cmd.Args))
	if err != nil {
		logger.Error("view listing failed", "error", err)
		return writeReply(w, wire.ReplyNoFilesFound)
	}
	return writeReply(w, listing)
}

func (s *Store) serveRead(user string, cmd wire.Command, w io.Writer) error {
	file := cmd.Arg(0)
	if file == "" {
		return writeReply(w, wire.ReplySpecifyFilename)
	}
	content, err := s.Read(file, user)
	switch {
	case errors.Is(err, ErrNoReadAccess):
		return writeReply(w, wire.ReplyNoReadPermission(file))
	case err != nil:
		return writeReply(w, wire.ReplyFileNotFoundOrOpen(file))
	case content == "":
		return writeReply(w, wire.ReplyEmptyFile(file))
	}
	if s.metrics != nil {
		s.metrics.RecordBytesTransferred(wire.VerbRead, "sent", uint64(len(content)))
	}
	return writeReply(w, content)
}

func (s *Store) serveCreate(user string, cmd wire.Command, w io.Writer) error {
	file := cmd.Arg(0)
	if file == "" {
		return writeReply(w, wire.ReplySpecifyFilename)
	}
	err := s.Create(file, user)
	switch {
	case errors.Is(err, ErrExists):
		return writeReply(w, wire.ReplyFileExists(file))
	case err != nil:
		return writeReply(w, wire.ReplyCannotCreate(file))
	}
	return writeReply(w, wire.ReplyCreated(file))
}

func (s *Store) serveDelete(user string, cmd wire.Command, w io.Writer) error {
	file := cmd.Arg(0)
	if file == "" {
		return writeReply(w, wire.ReplySpecifyFilename)
	}
	err := s.Delete(file, user)
	switch {
	case errors.Is(err, ErrNoWriteAccess):
		return writeReply(w, wire.ReplyNoWritePermission(file))
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidName):
		return writeReply(w, wire.ReplyFileNotFound(file))
	case err != nil:
		logger.Error("delete failed", "file", file, "error", err)
		return writeReply(w, wire.ReplyFileNotFound(file))
	}
	return writeReply(w, wire.ReplyDeleted(file))
}

func (s *Store) serveWrite(user string, cmd wire.Command, r *bufio.Reader, w io.Writer) error {
	if len(cmd.Args) != 2 {
		return writeReply(w, wire.UsageWrite)
	}
	sentence, err := strconv.Atoi(cmd.Arg(1))
	if err != nil {
		return writeReply(w, wire.UsageWrite)
	}
	return s.Write(cmd.Arg(0), sentence, user, r, w)
}

func (s *Store) serveInfo(user string, cmd wire.Command, w io.Writer) error {
	file := cmd.Arg(0)
	if file == "" {
		return writeReply(w, wire.ReplySpecifyFilename)
	}
	fi, err := s.Info(file, user)
	switch {
	case errors.Is(err, ErrNoReadAccess):
		return writeReply(w, wire.ReplyNoReadPermission(file))
	case err != nil:
		return writeReply(w, wire.ReplyFileNotFound(file))
	}
	return writeReply(w, wire.FormatFileInfo(fi))
}

func (s *Store) serveStream(ctx context.Context, user string, cmd wire.Command, w io.Writer) error {
	file := cmd.Arg(0)
	if file == "" {
		return writeReply(w, wire.ReplySpecifyFilename)
	}
	err := s.Stream(ctx, file, user, w)
	switch {
	case errors.Is(err, ErrNoReadAccess):
		return writeReply(w, wire.ReplyNoStreamPermission(file))
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidName):
		return writeReply(w, wire.ReplyCannotOpen(file))
	}
	return err
}

func (s *Store) serveUndo(user string, cmd wire.Command, w io.Writer) error {
	file := cmd.Arg(0)
	if file == "" {
		return writeReply(w, wire.ReplySpecifyFilename)
	}
	err := s.Undo(file, user)
	switch {
	case errors.Is(err, ErrNoWriteAccess):
		return writeReply(w, wire.ReplyNoWritePermission(file))
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidName):
		return writeReply(w, wire.ReplyFileNotFound(file))
	case errors.Is(err, ErrNoUndo):
		return writeReply(w, wire.ReplyNoUndoHistory(file))
	case errors.Is(err, errUndoStage):
		return writeReply(w, wire.ReplyTempBackupFailed)
	case err != nil:
		logger.Error("undo failed", "file", file, "error", err)
		return writeReply(w, wire.ReplyUndoRestoreFailed)
	}
	return writeReply(w, wire.ReplyUndoSuccessful)
}

func (s *Store) serveCheckpoint(user string, cmd wire.Command, w io.Writer) error {
	if len(cmd.Args) != 2 {
		return writeReply(w, wire.UsageCheckpoint)
	}
	file, tag := cmd.Arg(0), cmd.Arg(1)
	err := s.CheckpointCreate(file, tag, user)
	switch {
	case errors.Is(err, ErrNoReadAccess):
		return writeReply(w, wire.ReplyNoReadPermission(file))
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidName):
		return writeReply(w, wire.ReplyFileNotFound(file))
	case errors.Is(err, ErrCheckpointExists):
		return writeReply(w, wire.ReplyCheckpointExists(tag, file))
	case err != nil:
		logger.Error("checkpoint create failed", "file", file, "tag", tag, "error", err)
		return writeReply(w, wire.ReplyCheckpointFailed)
	}
	return writeReply(w, wire.ReplyCheckpointCreated(tag, file))
}

func (s *Store) serveViewCheckpoint(user string, cmd wire.Command, w io.Writer) error {
	if len(cmd.Args) != 2 {
		return writeReply(w, wire.UsageViewCheckpoint)
	}
	file, tag := cmd.Arg(0), cmd.Arg(1)
	content, err := s.CheckpointView(file, tag, user)
	switch {
	case errors.Is(err, ErrNoReadAccess):
		return writeReply(w, wire.ReplyNoReadPermission(file))
	case errors.Is(err, ErrCheckpointNotFound):
		return writeReply(w, wire.ReplyCheckpointNotFound(tag, file))
	case err != nil:
		return writeReply(w, wire.ReplyCheckpointNotFound(tag, file))
	}
	return writeReply(w, wire.CheckpointHeader(tag, file)+content+wire.CheckpointFooter)
}

func (s *Store) serveRevert(user string, cmd wire.Command, w io.Writer) error {
	if len(cmd.Args) != 2 {
		return writeReply(w, wire.UsageRevert)
	}
	file, tag := cmd.Arg(0), cmd.Arg(1)
	err := s.CheckpointRevert(file, tag, user)
	switch {
	case errors.Is(err, ErrNoWriteAccess):
		return writeReply(w, wire.ReplyNoWritePermission(file))
	case errors.Is(err, ErrCheckpointNotFound):
		return writeReply(w, wire.ReplyCheckpointNotFound(tag, file))
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidName):
		return writeReply(w, wire.ReplyFileNotFound(file))
	case err != nil:
		logger.Error("checkpoint revert failed", "file", file, "tag", tag, "error", err)
		return writeReply(w, wire.ReplyRevertFailed)
	}
	return writeReply(w, wire.ReplyReverted(file, tag))
}

func (s *Store) serveListCheckpoints(user string, cmd wire.Command, w io.Writer) error {
	if len(cmd.Args) != 1 {
		return writeReply(w, wire.UsageListCheckpoints)
	}
	file := cmd.Arg(0)
	listing, err := s.CheckpointList(file, user)
	switch {
	case errors.Is(err, ErrNoReadAccess):
		return writeReply(w, wire.ReplyNoReadPermission(file))
	case err != nil:
		return writeReply(w, wire.ReplyNoCheckpoints)
	}
	return writeReply(w, listing)
}

func (s *Store) serveAddAccess(user string, cmd wire.Command, w io.Writer) error {
	if len(cmd.Args) != 3 {
		return writeReply(w, wire.UsageAddAccess)
	}
	flag, file, target := cmd.Arg(0), cmd.Arg(1), cmd.Arg(2)
	if flag != "-R" && flag != "-W" {
		return writeReply(w, wire.ReplyInvalidAccessFlag(flag))
	}

	owner, err := s.Owner(file)
	if err != nil {
		return writeReply(w, wire.ReplyFileNotFound(file))
	}
	if owner != user {
		return writeReply(w, wire.ReplyOnlyOwnerGrant(file))
	}

	if flag == "-R" {
		changed, err := s.AddRead(file, target)
		if err != nil {
			return writeReply(w, wire.ReplyFileNotFound(file))
		}
		if !changed {
			return writeReply(w, wire.ReplyAlreadyHasRead(target, file))
		}
		return writeReply(w, wire.ReplyReadGranted(target, file))
	}

	changed, err := s.AddWrite(file, target)
	if err != nil {
		return writeReply(w, wire.ReplyFileNotFound(file))
	}
	if !changed {
		return writeReply(w, wire.ReplyAlreadyHasWrite(target, file))
	}
	return writeReply(w, wire.ReplyWriteGranted(target, file))
}

func (s *Store) serveRemAccess(user string, cmd wire.Command, w io.Writer) error {
	if len(cmd.Args) != 2 {
		return writeReply(w, wire.UsageRemAccess)
	}
	file, target := cmd.Arg(0), cmd.Arg(1)

	owner, err := s.Owner(file)
	if err != nil {
		return writeReply(w, wire.ReplyFileNotFound(file))
	}
	if owner != user {
		return writeReply(w, wire.ReplyOnlyOwnerRevoke(file))
	}
	if owner == target {
		return writeReply(w, wire.ReplyCannotRevokeOwner)
	}

	if err := s.RemoveAccess(file, target); err != nil {
		logger.Error("access revoke failed", "file", file, "target", target, "error", err)
		return writeReply(w, wire.ReplyRevokeFailed)
	}
	return writeReply(w, wire.ReplyAccessRevoked(target, file))
}

// replyRecorder notes whether the first reply written was an error or
// usage line so the operation metric can label the outcome.
type replyRecorder struct {
	w          io.Writer
	sniffed    bool
	errorReply bool
}

func (r *replyRecorder) Write(p []byte) (int, error) {
	if !r.sniffed {
		r.sniffed = true
		s := string(p)
		r.errorReply = strings.HasPrefix(s, "Error") ||
			strings.HasPrefix(s, "ERROR") ||
			strings.HasPrefix(s, "Usage") ||
			strings.HasPrefix(s, "Invalid")
	}
	return r.w.Write(p)
}
