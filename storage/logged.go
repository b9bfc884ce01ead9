package storage

import (
	"github.com/ipfs/go-cid"
	"github.com/sirupsen/logrus"
)

// Logged wraps a CAS and logs each call. Successful calls are logged at
// debug level and failures at warn level.
type Logged struct {
	CAS     CAS
	Log     logrus.FieldLogger
	Backend string
}

var _ CAS = Logged{}

func (l Logged) entry(op string) *logrus.Entry {
	return l.Log.WithFields(logrus.Fields{"backend": l.Backend, "op": op})
}

func (l Logged) Put(bytes []byte) (cid.Cid, error) {
	id, err := l.CAS.Put(bytes)
	e := l.entry("put").WithField("size", len(bytes))
	if err != nil {
		e.WithError(err).Warn("cas put failed")
		return id, err
	}
	e.WithField("cid", id.String()).Debug("cas put")
	return id, nil
}

func (l Logged) Get(id cid.Cid) ([]byte, error) {
	b, err := l.CAS.Get(id)
	e := l.entry("get").WithField("cid", id.String())
	switch {
	case IsNotFound(err):
		e.Debug("cas miss")
	case err != nil:
		e.WithError(err).Warn("cas get failed")
	default:
		e.WithField("size", len(b)).Debug("cas get")
	}
	return b, err
}

func (l Logged) Has(id cid.Cid) bool {
	ok := l.CAS.Has(id)
	l.entry("has").WithFields(logrus.Fields{"cid": id.String(), "found": ok}).Debug("cas has")
	return ok
}

// List enumerates the wrapped store when it supports listing.
func (l Logged) List() ([]cid.Cid, error) {
	lister, ok := l.CAS.(Lister)
	if !ok {
		return nil, ErrNotListable
	}
	return lister.List()
}
