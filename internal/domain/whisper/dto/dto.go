package dto

// BeginWhisperRequest carries everything the group trigger knows about
// the sender and the reply target
type BeginWhisperRequest struct {
	FromID          int64
	FromName        string
	TargetID        int64
	TargetName      string
	ChatID          int64
	ChatTitle       string
	TargetMessageID int
}

// SubmitWhisperResult reports where the whisper shell was posted
type SubmitWhisperResult struct {
	Token    string
	ChatID   int64
	TargetID int64
}

// ReadWhisperResult carries the revealed text back to the callback answer
type ReadWhisperResult struct {
	Content string
}

// StatsResponse is the admin /stats summary
type StatsResponse struct {
	PendingWhispers int64
	ActiveWaits     int64
	Subscriptions   int64
}
