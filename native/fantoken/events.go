package fantoken

import (
	"dropsland/core/events"
	"dropsland/core/types"
)

const (
	// EventTypeMintCreated is emitted when an artist registers their mint.
	EventTypeMintCreated = "fantoken.mint.created"
	// EventTypeTokensMinted is emitted when a buyer purchases tokens.
	EventTypeTokensMinted = "fantoken.tokens.minted"
	// EventTypeAccountFrozen is emitted when a token account is frozen.
	EventTypeAccountFrozen = "fantoken.account.frozen"
	// EventTypeRewardAdded is emitted when an artist publishes a reward.
	EventTypeRewardAdded = "fantoken.reward.added"
	// EventTypeRewardRemoved is emitted when an artist retires a reward.
	EventTypeRewardRemoved = "fantoken.reward.removed"
	// EventTypeRewardClaimed is emitted when a buyer claims a reward.
	EventTypeRewardClaimed = "fantoken.reward.claimed"
	// EventTypeTokensBurned is emitted when the reward authority burns tokens
	// outside the claim path.
	EventTypeTokensBurned = "fantoken.tokens.burned"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// MintCreatedEvent returns the structured payload announcing a new mint.
func MintCreatedEvent(artist string, name string, symbol string) *types.Event {
	return &types.Event{
		Type: EventTypeMintCreated,
		Attributes: map[string]string{
			"artist": artist,
			"name":   name,
			"symbol": symbol,
		},
	}
}

// TokensMintedEvent captures a completed purchase. The ticket number and buyer
// name travel on the event for receipt purposes only.
func TokensMintedEvent(artist string, buyer string, amount string, buyerName string, ticketNumber string, payment string) *types.Event {
	return &types.Event{
		Type: EventTypeTokensMinted,
		Attributes: map[string]string{
			"artist":       artist,
			"buyer":        buyer,
			"amount":       amount,
			"buyerName":    buyerName,
			"ticketNumber": ticketNumber,
			"payment":      payment,
		},
	}
}

// AccountFrozenEvent captures a token account becoming soulbound.
func AccountFrozenEvent(artist string, owner string) *types.Event {
	return &types.Event{
		Type: EventTypeAccountFrozen,
		Attributes: map[string]string{
			"artist": artist,
			"owner":  owner,
		},
	}
}

// RewardAddedEvent captures a newly published reward.
func RewardAddedEvent(artist string, rewardID string, title string, requiredTokens string) *types.Event {
	return &types.Event{
		Type: EventTypeRewardAdded,
		Attributes: map[string]string{
			"artist":         artist,
			"rewardId":       rewardID,
			"title":          title,
			"requiredTokens": requiredTokens,
		},
	}
}

// RewardRemovedEvent captures a reward being retired.
func RewardRemovedEvent(artist string, rewardID string, title string) *types.Event {
	return &types.Event{
		Type: EventTypeRewardRemoved,
		Attributes: map[string]string{
			"artist":   artist,
			"rewardId": rewardID,
			"title":    title,
		},
	}
}

// RewardClaimedEvent captures a successful claim and the exact burn it caused.
func RewardClaimedEvent(artist string, buyer string, rewardID string, title string, tokensBurned string) *types.Event {
	return &types.Event{
		Type: EventTypeRewardClaimed,
		Attributes: map[string]string{
			"artist":       artist,
			"buyer":        buyer,
			"rewardId":     rewardID,
			"title":        title,
			"tokensBurned": tokensBurned,
		},
	}
}

// TokensBurnedEvent captures a direct burn performed by the reward authority.
func TokensBurnedEvent(artist string, buyer string, authority string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeTokensBurned,
		Attributes: map[string]string{
			"artist":    artist,
			"buyer":     buyer,
			"authority": authority,
			"amount":    amount,
		},
	}
}
