package mqtt

import "log"

// outbound is a serialized message held for replay after reconnection.
type outbound struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// sendQueue is a bounded FIFO holding messages while the broker is
// unreachable; the oldest message is dropped on overflow. Not safe for
// concurrent use; the publisher synchronizes around it.
type sendQueue struct {
	msgs    []outbound
	max     int
	dropped bool
}

func newSendQueue(max int) *sendQueue {
	return &sendQueue{max: max}
}

func (q *sendQueue) push(m outbound) {
	if len(q.msgs) >= q.max {
		if !q.dropped {
			log.Printf("mqtt: send queue full (%d messages), dropping oldest", q.max)
			q.dropped = true
		}
		q.msgs = q.msgs[1:]
	}
	q.msgs = append(q.msgs, m)
}

// drain returns the queued messages in order and empties the queue.
func (q *sendQueue) drain() []outbound {
	msgs := q.msgs
	q.msgs = nil
	q.dropped = false
	return msgs
}

func (q *sendQueue) len() int {
	return len(q.msgs)
}
