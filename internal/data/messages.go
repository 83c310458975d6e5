package data

import "context"

// MessagesStore provides chat message operations. Messages are scoped to
// a delivery and only its parties may read or write them.
type MessagesStore struct {
	db *DocumentStore
}

// NewMessagesStore returns a MessagesStore over the shared document store.
func NewMessagesStore(db *DocumentStore) *MessagesStore {
	return &MessagesStore{db: db}
}

// SaveMessage appends a message after checking the sender is a party to
// its delivery, and returns it joined with the sender snapshot.
func (m *MessagesStore) SaveMessage(ctx context.Context, msg Message) (*MessageWithSender, error) {
	if msg.ID == "" {
		msg.ID = NewID()
	}
	var saved MessageWithSender
	err := m.db.Update(ctx, func(doc *Document) error {
		if err := checkParty(doc, msg.DeliveryID, msg.SenderID); err != nil {
			return err
		}
		doc.Messages = append(doc.Messages, msg)
		saved = MessageWithSender{Message: msg, Sender: doc.partySummary(msg.SenderID)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetMessageHistory returns every message of a delivery in insertion
// order, each joined with its sender snapshot.
func (m *MessagesStore) GetMessageHistory(ctx context.Context, deliveryID, userID string) ([]MessageWithSender, error) {
	out := []MessageWithSender{}
	err := m.db.View(ctx, func(doc *Document) error {
		if err := checkParty(doc, deliveryID, userID); err != nil {
			return err
		}
		for _, msg := range doc.Messages {
			if msg.DeliveryID == deliveryID {
				out = append(out, MessageWithSender{Message: msg, Sender: doc.partySummary(msg.SenderID)})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckParty reports ErrDeliveryNotFound or ErrNotParty when userID may
// not access the delivery's conversation.
func (m *MessagesStore) CheckParty(ctx context.Context, deliveryID, userID string) error {
	return m.db.View(ctx, func(doc *Document) error {
		return checkParty(doc, deliveryID, userID)
	})
}

func checkParty(doc *Document, deliveryID, userID string) error {
	d := doc.delivery(deliveryID)
	if d == nil {
		return ErrDeliveryNotFound
	}
	if !d.IsParty(userID) {
		return ErrNotParty
	}
	return nil
}
