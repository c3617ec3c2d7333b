package wire

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reply catalog. Every client-visible line the servers emit is produced
// here so the name server and the storage servers never drift apart on
// wording. Callers write these strings to the connection verbatim.

// Fixed replies.
const (
	ReplyInvalidCommand  = "Invalid command.\n"
	ReplyUpdateApplied   = "Update applied successfully.\n"
	ReplyWriteSuccessful = "Write Successful!\n"
	ReplyUndoSuccessful  = "Undo Successful!\n"
	ReplyNoActiveServers = "No active storage servers.\n"
	ReplyNoFilesFound    = "(no files found)\n"
	ReplyNoCheckpoints   = "No checkpoints found for this file\n"
	ReplyUsersHeader     = "Registered users:\n"

	ReplyAuthFailedLine      = "Error: Authentication failed\n"
	ReplySpecifyFilename     = "Error: Please specify a filename\n"
	ReplyNoStorageServer     = "Error: No storage server available\n"
	ReplyExecDisabled        = "Error: EXEC is disabled on this server\n"
	ReplyUsersFileError      = "Error: Could not open users file.\n"
	ReplyTempBackupFailed    = "Error: Failed to create temporary backup\n"
	ReplyUndoRestoreFailed   = "Error: Failed to restore from undo backup\n"
	ReplyCheckpointFailed    = "Error: Failed to create checkpoint\n"
	ReplyRevertFailed        = "Error: Failed to restore from checkpoint\n"
	ReplyRevokeFailed        = "Error: Failed to revoke access\n"
	ReplyCannotRevokeOwner   = "Error: Cannot revoke owner's access\n"
	ReplyEmptyFileOnlyZero   = "ERROR: File is empty. Only sentence 0 can be edited.\n"
	ReplyWordIndexOutOfRange = "ERROR: Word index out of range.\n"
	ReplyInvalidWriteFormat  = "ERROR: Invalid format. Use '<word_index> <content>' or 'ETIRW'.\n"
	ReplyUnableToSave        = "ERROR: Unable to save file.\n"

	StreamTerminator = "\n--- End of Stream ---\n"

	CheckpointFooter = "\n=== End of checkpoint ===\n"
)

// Usage lines for commands with fixed arity.
const (
	UsageWrite           = "Usage: WRITE <filename> <sentence_number>\n"
	UsageCheckpoint      = "Usage: CHECKPOINT <filename> <tag>\n"
	UsageViewCheckpoint  = "Usage: VIEWCHECKPOINT <filename> <tag>\n"
	UsageRevert          = "Usage: REVERT <filename> <tag>\n"
	UsageListCheckpoints = "Usage: LISTCHECKPOINTS <filename>\n"
	UsageAddAccess       = "Usage: ADDACCESS -R|-W <filename> <target_username>\n"
	UsageRemAccess       = "Usage: REMACCESS <filename> <target_username>\n"
)

// VIEW -l table header.
const ViewLongHeader = "---------------------------------------------------------\n" +
	"|  Filename  | Words | Chars | Last Access Time | Owner |\n" +
	"|------------|-------|-------|------------------|-------|\n"

// TimeLayout renders the timestamps shown to clients.
const TimeLayout = "2006-01-02 15:04:05"

// ViewTimeLayout is the shorter form used in VIEW -l rows.
const ViewTimeLayout = "2006-01-02 15:04"

func ReplyCreated(file string) string {
	return fmt.Sprintf("Success: File '%s' created successfully\n", file)
}

func ReplyDeleted(file string) string {
	return fmt.Sprintf("File '%s' deleted successfully\n", file)
}

func ReplyEmptyFile(file string) string {
	return fmt.Sprintf("(File '%s' is empty)\n", file)
}

func ReplySentenceLocked(n int) string {
	return fmt.Sprintf("Sentence %d locked. You may begin writing.\n", n)
}

func ReplyCheckpointCreated(tag, file string) string {
	return fmt.Sprintf("Success: Checkpoint '%s' created successfully for file '%s'\n", tag, file)
}

func ReplyReverted(file, tag string) string {
	return fmt.Sprintf("Success: File '%s' successfully reverted to checkpoint '%s'\n", file, tag)
}

func CheckpointHeader(tag, file string) string {
	return fmt.Sprintf("=== Content of checkpoint '%s' for file '%s' ===\n", tag, file)
}

func ReplyReadGranted(user, file string) string {
	return fmt.Sprintf("Success: Read access granted to '%s' for file '%s'\n", user, file)
}

func ReplyWriteGranted(user, file string) string {
	return fmt.Sprintf("Success: Write access granted to '%s' for file '%s'\n", user, file)
}

func ReplyAlreadyHasRead(user, file string) string {
	return fmt.Sprintf("Info: User '%s' already has read access to '%s'\n", user, file)
}

func ReplyAlreadyHasWrite(user, file string) string {
	return fmt.Sprintf("Info: User '%s' already has write access to '%s'\n", user, file)
}

func ReplyAccessRevoked(user, file string) string {
	return fmt.Sprintf("Success: All access revoked for '%s' on file '%s'\n", user, file)
}

func ReplyUserLine(name string) string {
	return fmt.Sprintf("--> %s\n", name)
}

// FanoutHeader prefixes each storage server's section in a VIEW response.
func FanoutHeader(id, port int) string {
	return fmt.Sprintf("--- StorageServer %d (port %d) ---\n", id, port)
}

func ReplyFileNotFound(file string) string {
	return fmt.Sprintf("Error: File '%s' not found\n", file)
}

func ReplyFileNotFoundOrOpen(file string) string {
	return fmt.Sprintf("Error: File '%s' not found or cannot be opened\n", file)
}

func ReplyFileExists(file string) string {
	return fmt.Sprintf("Error: File '%s' already exists\n", file)
}

func ReplyCannotCreate(file string) string {
	return fmt.Sprintf("Error: Cannot create file '%s'\n", file)
}

func ReplyNoReadPermission(file string) string {
	return fmt.Sprintf("Error: Access denied. You do not have read permission for '%s'\n", file)
}

func ReplyNoWritePermission(file string) string {
	return fmt.Sprintf("Error: Access denied. You do not have write permission for '%s'\n", file)
}

func ReplyNoStreamPermission(file string) string {
	return fmt.Sprintf("ERROR: Access denied. You do not have permission to stream '%s'.\n", file)
}

func ReplyCannotOpen(file string) string {
	return fmt.Sprintf("ERROR: Cannot open file '%s'\n", file)
}

func ReplyNoUndoHistory(file string) string {
	return fmt.Sprintf("Error: No undo history available for '%s'\n", file)
}

func ReplyCheckpointExists(tag, file string) string {
	return fmt.Sprintf("Error: Checkpoint '%s' already exists for file '%s'\n", tag, file)
}

func ReplyCheckpointNotFound(tag, file string) string {
	return fmt.Sprintf("Error: Checkpoint '%s' not found for file '%s'\n", tag, file)
}

func ReplyOnlyOwnerGrant(file string) string {
	return fmt.Sprintf("Error: Only the owner can grant access to '%s'\n", file)
}

func ReplyOnlyOwnerRevoke(file string) string {
	return fmt.Sprintf("Error: Only the owner can revoke access to '%s'\n", file)
}

func ReplyInvalidAccessFlag(flag string) string {
	return fmt.Sprintf("Error: Invalid flag '%s'. Use -R for read or -W for write\n", flag)
}

func ReplyCannotConnectStorage(port int) string {
	return fmt.Sprintf("Error: Could not connect to storage server on port %d\n", port)
}

func ReplyExecReadFailed(file string) string {
	return fmt.Sprintf("Error: Could not read file '%s' or file is empty\n", file)
}

func ReplyExecFailed(command string) string {
	return fmt.Sprintf("ERROR: Failed to execute command: %s\n", command)
}

// ReplyInvalidSentence reports the valid WRITE index range. When the file
// ends with a delimiter one extra index is allowed, and the message says so.
func ReplyInvalidSentence(max int, endsWithDelim bool) string {
	suffix := "."
	if endsWithDelim {
		suffix = " (file ends with punctuation)."
	}
	return fmt.Sprintf("ERROR: Invalid sentence number. Valid range is 0 to %d%s\n", max, suffix)
}

func ReplySentenceIsLocked(n int) string {
	return fmt.Sprintf("ERROR: Sentence %d is locked by another user.\n", n)
}

// FileInfo is the record rendered by INFO. The name server fills every
// field from its index; a storage server fills what its sidecar and stat
// know and reports its own id.
type FileInfo struct {
	Name       string
	Owner      string
	Created    time.Time
	Modified   time.Time
	Accessed   time.Time
	ReadUsers  []string
	WriteUsers []string
	StorageIDs []int
}

// FormatFileInfo renders the FILE INFO banner.
func FormatFileInfo(fi FileInfo) string {
	var b strings.Builder
	b.WriteString("------------------- FILE INFO -------------------\n")
	writeInfoField(&b, "File Name", fi.Name)
	writeInfoField(&b, "Owner", fi.Owner)
	writeInfoField(&b, "Created", formatInfoTime(fi.Created))
	writeInfoField(&b, "Last Modified", formatInfoTime(fi.Modified))
	writeInfoField(&b, "Last Access", formatInfoTime(fi.Accessed))
	writeInfoField(&b, "Read Users", strings.Join(fi.ReadUsers, ", "))
	writeInfoField(&b, "Write Users", strings.Join(fi.WriteUsers, ", "))
	writeInfoField(&b, "Storage IDs", joinIDs(fi.StorageIDs))
	b.WriteString("-------------------------------------------------\n")
	return b.String()
}

// ParseFileInfo extracts the record from a FILE INFO banner. The name
// server uses this to mirror storage server metadata during the
// registration refresh. Unknown lines are skipped.
func ParseFileInfo(s string) (FileInfo, error) {
	var fi FileInfo
	seen := false
	for _, line := range strings.Split(s, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "File Name":
			fi.Name = value
			seen = true
		case "Owner":
			fi.Owner = value
		case "Created":
			fi.Created = parseInfoTime(value)
		case "Last Modified":
			fi.Modified = parseInfoTime(value)
		case "Last Access":
			fi.Accessed = parseInfoTime(value)
		case "Read Users":
			fi.ReadUsers = splitFileList(value)
		case "Write Users":
			fi.WriteUsers = splitFileList(value)
		case "Storage IDs":
			for _, f := range splitFileList(value) {
				if id, err := strconv.Atoi(f); err == nil {
					fi.StorageIDs = append(fi.StorageIDs, id)
				}
			}
		}
	}
	if !seen {
		return FileInfo{}, fmt.Errorf("no FILE INFO record in %q", s)
	}
	return fi, nil
}

func writeInfoField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%-13s: %s\n", label, value)
}

func formatInfoTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(TimeLayout)
}

func parseInfoTime(s string) time.Time {
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

// FormatViewLongRow renders one VIEW -l table row.
func FormatViewLongRow(name string, words, chars int, accessed time.Time, owner string) string {
	return fmt.Sprintf("| %-10s| %-5d | %-5d | %-16s | %-5s |\n",
		name, words, chars, accessed.Format(ViewTimeLayout), owner)
}

// ViewLongRow is one parsed VIEW -l data row. The name server reads these
// from a storage server's listing during the registration refresh.
type ViewLongRow struct {
	Name     string
	Words    int
	Chars    int
	Accessed time.Time
	Owner    string
}

// ParseViewLongRows extracts the data rows from a VIEW -l response. Header
// and rule lines are recognized by their non-numeric count columns and
// skipped, as is any surrounding fan-out text.
func ParseViewLongRows(s string) []ViewLongRow {
	var rows []ViewLongRow
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := strings.Split(line, "|")
		if len(cells) < 7 {
			continue
		}
		words, err := strconv.Atoi(strings.TrimSpace(cells[2]))
		if err != nil {
			continue
		}
		chars, err := strconv.Atoi(strings.TrimSpace(cells[3]))
		if err != nil {
			continue
		}
		name := strings.TrimSpace(cells[1])
		if name == "" {
			continue
		}
		accessed, _ := time.ParseInLocation(ViewTimeLayout, strings.TrimSpace(cells[4]), time.Local)
		rows = append(rows, ViewLongRow{
			Name:     name,
			Words:    words,
			Chars:    chars,
			Accessed: accessed,
			Owner:    strings.TrimSpace(cells[5]),
		})
	}
	return rows
}

// Checkpoint listing table.

const checkpointRule = "------------------------------------------------------------------------\n"

func CheckpointListHeader(file string) string {
	return fmt.Sprintf("Checkpoints for file '%s':\n", file) +
		fmt.Sprintf("%-20s %-30s %-15s %s\n", "Tag", "Timestamp", "Size", "Created By") +
		checkpointRule
}

func CheckpointListRow(tag string, timestamp time.Time, size int64, createdBy string) string {
	ts := "N/A"
	if !timestamp.IsZero() {
		ts = timestamp.Format(TimeLayout)
	}
	return fmt.Sprintf("%-20s %-30s %-15d %s\n", tag, ts, size, createdBy)
}

func CheckpointListFooter(count int) string {
	return fmt.Sprintf("\nTotal: %d checkpoint(s)\n", count)
}
