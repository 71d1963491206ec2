package eventloop

import (
	"github.com/joeycumines/logiface"
)

// disabledLogger is used whenever a Loop is constructed without WithLogger.
// logiface's own Enabled() short-circuit means every Err()/Debug() call
// against it costs a single nil writer check.
var disabledLogger = logiface.New[logiface.Event]()

func loggerOrDefault(l *logiface.Logger[logiface.Event]) *logiface.Logger[logiface.Event] {
	if l == nil {
		return disabledLogger
	}
	return l
}

// logCallbackPanic records a recovered panic from user code at Err level.
// site identifies the kind of callback ("task", "timer", "watcher",
// "destructor"); never re-raised from here.
func logCallbackPanic(l *logiface.Logger[logiface.Event], site string, value any) {
	l.Err().Str("site", site).Err(&CallbackPanic{Value: value, Site: site}).Log("callback panic recovered")
}

func logLifecycle(l *logiface.Logger[logiface.Event], msg string) {
	l.Debug().Log(msg)
}

func logLifecycleField(l *logiface.Logger[logiface.Event], msg, key, val string) {
	l.Debug().Str(key, val).Log(msg)
}
