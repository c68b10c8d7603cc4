package eventbus

import (
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventBus delivers published values to every subscribed func whose parameter
// list matches the published arguments.
type EventBus interface {
	Publish(args ...interface{})
	Subscribe(handler interface{})
	SubscribersCount() int
}

type publisherImpl struct {
	log      *logrus.Logger
	mu       sync.RWMutex
	handlers []reflect.Value
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &publisherImpl{log: log}
}

// MatchSignature reports whether handler can be called with args.
func MatchSignature(handler interface{}, args []interface{}) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != len(args) {
		return false
	}
	for i, arg := range args {
		param := t.In(i)
		if arg == nil {
			switch param.Kind() {
			case reflect.Interface, reflect.Ptr:
				continue
			default:
				return false
			}
		}
		argType := reflect.TypeOf(arg)
		if param.Kind() == reflect.Interface {
			if !argType.Implements(param) {
				return false
			}
			continue
		}
		if !argType.AssignableTo(param) {
			return false
		}
	}
	return true
}

func (p *publisherImpl) Publish(args ...interface{}) {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		in[i] = reflect.ValueOf(arg)
	}

	p.mu.RLock()
	handlers := append([]reflect.Value(nil), p.handlers...)
	p.mu.RUnlock()

	delivered := 0
	for _, h := range handlers {
		if !MatchSignature(h.Interface(), args) {
			continue
		}
		if p.call(h, in, args) {
			delivered++
		}
	}
	if delivered == 0 && p.log != nil {
		p.log.Warnf("eventbus.Publish: no matching subscribers for event with args: %v", args)
	}
}

func (p *publisherImpl) call(h reflect.Value, in []reflect.Value, args []interface{}) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if p.log != nil {
				p.log.Errorf("eventbus: handler %s panicked with args %v: %v", h.Type().String(), args, r)
			}
		}
	}()
	h.Call(in)
	return true
}

func (p *publisherImpl) Subscribe(handler interface{}) {
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func {
		panic("handler must be a function")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, v)
}

func (p *publisherImpl) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}
