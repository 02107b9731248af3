package controller

import (
	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/store"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox"
)

// Every UI intent and store notification enters the loop as one of these
// events; the loop goroutine is the only writer of controller state.

type listReq struct {
	filter string
	reply  chan []domain.Entry
}

type createReq struct {
	identity string
	draft    domain.Draft
	reply    chan createRes
}

type createRes struct {
	id  string
	err error
}

type updateReq struct {
	identity string
	id       string
	patch    domain.Patch
	reply    chan error
}

type deleteReq struct {
	identity string
	id       string
	reply    chan error
}

type reorderReq struct {
	identity string
	op       reorderOp
	id       string
	reply    chan error
}

type reorderOp int

const (
	reorderBegin reorderOp = iota
	reorderHover
	reorderDrop
	reorderCancel
)

// commitDone reports the result of an in-flight bulk order write.
type commitDone struct {
	err error
}

type openReq struct {
	id    string
	reply chan openRes
}

type openRes struct {
	session sandbox.Session
	err     error
}

// sessionOpened records a successfully launched viewer session.
type sessionOpened struct {
	sessionID string
	entryID   string
}

type closeReq struct {
	reply chan error
}

type storeChange struct {
	change store.Change
}

// resubscribed hands the loop a replacement change feed after the previous
// one closed underneath it.
type resubscribed struct {
	changes <-chan store.Change
	stop    func()
}

// compactReq asks for an order-index compaction pass (maintenance cron).
type compactReq struct{}
