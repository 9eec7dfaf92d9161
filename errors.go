package coroutines

import "errors"

// ErrChannelClosed is returned by [Sender.Send]/[Sender.SendAll] when the
// channel is closed. [Receiver.Receive] does not return it; it reports a
// closed and drained channel with ok == false.
var ErrChannelClosed = errors.New("coroutines: channel closed")
