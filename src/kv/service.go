package kv

import (
	"fmt"
	"strconv"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/sirupsen/logrus"
)

// Service is a node.Handler serving a Store.
type Service struct {
	store  Store
	out    *node.Outbox
	logger *logrus.Entry

	reads     int
	writes    int
	cas       int
	casFailed int
	notFound  int
}

// NewService ...
func NewService(store Store, out *node.Outbox, logger *logrus.Entry) *Service {
	return &Service{
		store:  store,
		out:    out,
		logger: logger.WithField("prefix", "kv"),
	}
}

// NewFactory returns a node.Factory creating Services backed by store.
func NewFactory(store Store) node.Factory {
	return func(ini *message.Init, out *node.Outbox, logger *logrus.Entry) (node.Handler, error) {
		return NewService(store, out, logger), nil
	}
}

// Registry implements node.Handler.
func (s *Service) Registry() message.Registry {
	return Registry()
}

// Process implements node.Handler.
func (s *Service) Process(env *message.Envelope) error {
	switch p := env.Body.Payload.(type) {
	case *Read:
		s.reads++
		v, err := s.store.Read(p.Key)
		if err != nil {
			return s.fail(env, err)
		}
		return s.out.Reply(env, ReadOk{Value: v})
	case *Write:
		s.writes++
		if err := s.store.Write(p.Key, p.Value); err != nil {
			return s.fail(env, err)
		}
		return s.out.Reply(env, WriteOk{})
	case *Cas:
		s.cas++
		if err := s.store.CompareAndSwap(p.Key, p.From, p.To, p.CreateIfNotExists); err != nil {
			return s.fail(env, err)
		}
		return s.out.Reply(env, CasOk{})
	default:
		return fmt.Errorf("unexpected message %s", env.Type())
	}
}

// fail answers with the error code of a StoreErr. Other errors are returned
// to the node, which answers with a crash.
func (s *Service) fail(env *message.Envelope, err error) error {
	var storeErr StoreErr
	if !asStoreErr(err, &storeErr) {
		return err
	}

	switch storeErr.errType {
	case KeyNotFound:
		s.notFound++
	case PreconditionFailed:
		s.casFailed++
	}

	s.logger.WithFields(logrus.Fields{
		"src":   env.Src,
		"error": err,
	}).Debug("Request failed")

	return s.out.ReplyError(env, message.StandardCode(storeErr.Kind()), err.Error())
}

// Stats implements node.StatsReporter.
func (s *Service) Stats() map[string]string {
	return map[string]string{
		"kv_reads":      strconv.Itoa(s.reads),
		"kv_writes":     strconv.Itoa(s.writes),
		"kv_cas":        strconv.Itoa(s.cas),
		"kv_cas_failed": strconv.Itoa(s.casFailed),
		"kv_not_found":  strconv.Itoa(s.notFound),
	}
}
