package control

import (
	"github.com/Rixmerz/MultiComputer/internal/remote"
	"github.com/Rixmerz/MultiComputer/internal/throttle"
)

// deliveryClass says how an action's message is paced and observed.
type deliveryClass int

const (
	// deliverNone keeps the action local.
	deliverNone deliveryClass = iota
	// deliverThrottled passes a channel gate and is not observed.
	deliverThrottled
	// deliverFireAndForget is sent unthrottled and not observed.
	deliverFireAndForget
	// deliverCritical is always sent and its outcome observed.
	deliverCritical
)

// MessageFor converts an action into the agent request that carries it.
// The second result is false for actions that never leave the process.
func MessageFor(a Action, mode DragMode) (remote.Message, bool) {
	switch a.Type {
	case ActMove:
		return remote.Move(a.X, a.Y), true
	case ActClick:
		return remote.Click(a.X, a.Y, buttonName(a.Button)), true
	case ActDragStart:
		return remote.DragStart(a.X, a.Y, buttonName(a.Button)), true
	case ActDragMove:
		if mode != DragRealtime {
			return remote.Message{}, false
		}
		return remote.DragMove(a.X, a.Y), true
	case ActDragEnd:
		if mode == DragRealtime {
			return remote.DragEnd(a.ToX, a.ToY, buttonName(a.Button)), true
		}
		return remote.Drag(a.X, a.Y, a.ToX, a.ToY, buttonName(a.Button)), true
	case ActScroll:
		return remote.Scroll(a.X, a.Y, a.Amount), true
	case ActShortcut:
		return remote.ShortcutMessage(a.Key), true
	case ActSpecialKey:
		return remote.SpecialMessage(a.Key), true
	case ActCharacter:
		return remote.TypeMessage(a.Text), true
	default:
		return remote.Message{}, false
	}
}

// deliveryFor returns the pacing policy and throttle channel for an action.
func deliveryFor(a Action, mode DragMode) (deliveryClass, throttle.Channel) {
	switch a.Type {
	case ActMove:
		return deliverThrottled, throttle.ChannelMove
	case ActScroll:
		return deliverThrottled, throttle.ChannelScroll
	case ActDragMove:
		if mode == DragRealtime {
			return deliverFireAndForget, ""
		}
		return deliverNone, ""
	case ActClick, ActDragStart, ActDragEnd, ActShortcut, ActSpecialKey, ActCharacter:
		return deliverCritical, ""
	default:
		return deliverNone, ""
	}
}

// buttonName defaults an empty button to left.
func buttonName(b Button) string {
	if b == "" {
		return string(ButtonLeft)
	}
	return string(b)
}
