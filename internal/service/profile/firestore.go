package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const profilesCollection = "advisor_profiles"

// firestoreProfile maps to the Firestore document structure.
type firestoreProfile struct {
	Username     string    `firestore:"username"`
	Email        string    `firestore:"email"`
	PasswordHash []byte    `firestore:"password_hash"`
	FirstName    string    `firestore:"first_name"`
	LastName     string    `firestore:"last_name"`
	AdvisorID    *string   `firestore:"advisor_id"`
	FirmName     string    `firestore:"firm_name"`
	Role         string    `firestore:"role"`
	Bio          string    `firestore:"bio"`
	AvatarURL    string    `firestore:"avatar_url"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func (fp *firestoreProfile) toRecord(id string) *Record {
	return &Record{
		ID:        id,
		Username:  fp.Username,
		Email:     fp.Email,
		FirstName: fp.FirstName,
		LastName:  fp.LastName,
		AdvisorID: fp.AdvisorID,
		FirmName:  fp.FirmName,
		Role:      fp.Role,
		Bio:       fp.Bio,
		AvatarURL: fp.AvatarURL,
		CreatedAt: fp.CreatedAt.UTC(),
	}
}

// FirestoreStore implements Repository on Cloud Firestore with transactions.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) collection() *firestore.CollectionRef {
	return s.client.Collection(profilesCollection)
}

// Create checks every unique field inside the transaction before writing.
func (s *FirestoreStore) Create(ctx context.Context, n NewRecord) (*Record, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	docRef := s.collection().Doc(id)
	createdAt := now()
	fp := firestoreProfile{
		Username:     n.Username,
		Email:        n.Email,
		PasswordHash: n.PasswordHash,
		FirstName:    n.FirstName,
		LastName:     n.LastName,
		AdvisorID:    n.AdvisorID,
		FirmName:     n.FirmName,
		Role:         n.Role,
		Bio:          n.Bio,
		AvatarURL:    n.AvatarURL,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		unique := map[string]string{FieldUsername: fp.Username, FieldEmail: fp.Email}
		if fp.AdvisorID != nil {
			unique[FieldAdvisorID] = *fp.AdvisorID
		}
		for field, value := range unique {
			taken, err := s.exists(tx, field, value)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%s %q: %w", field, value, ErrConstraintViolation)
			}
		}
		return tx.Create(docRef, fp)
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, fmt.Errorf("id %q: %w", id, ErrConstraintViolation)
		}
		return nil, err
	}
	return fp.toRecord(id), nil
}

func (s *FirestoreStore) exists(tx *firestore.Transaction, field, value string) (bool, error) {
	iter := tx.Documents(s.collection().Where(field, "==", value).Limit(1))
	defer iter.Stop()
	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %s: %w", field, err)
	}
	return true, nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*Record, error) {
	doc, err := s.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var fp firestoreProfile
	if err := doc.DataTo(&fp); err != nil {
		return nil, err
	}
	return fp.toRecord(id), nil
}

// Update runs a transactional read-modify-write touching only the delta fields.
func (s *FirestoreStore) Update(ctx context.Context, id string, d Delta) (*Record, error) {
	docRef := s.collection().Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		var fp firestoreProfile
		if err := doc.DataTo(&fp); err != nil {
			return err
		}

		rec := fp.toRecord(id)
		d.Apply(rec)

		updates := make([]firestore.Update, 0, 5)
		if d.FirstName != nil {
			updates = append(updates, firestore.Update{Path: FieldFirstName, Value: rec.FirstName})
		}
		if d.LastName != nil {
			updates = append(updates, firestore.Update{Path: FieldLastName, Value: rec.LastName})
		}
		if d.Bio != nil {
			updates = append(updates, firestore.Update{Path: FieldBio, Value: rec.Bio})
		}
		if d.AvatarURL != nil {
			updates = append(updates, firestore.Update{Path: FieldAvatarURL, Value: rec.AvatarURL})
		}
		if len(updates) == 0 {
			return nil
		}
		updates = append(updates, firestore.Update{Path: "updated_at", Value: now()})
		return tx.Update(docRef, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Credentials looks up the login id and password hash for username.
func (s *FirestoreStore) Credentials(ctx context.Context, username string) (Credentials, error) {
	iter := s.collection().Where(FieldUsername, "==", username).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return Credentials{}, ErrNotFound
	}
	if err != nil {
		return Credentials{}, err
	}
	var fp firestoreProfile
	if err := doc.DataTo(&fp); err != nil {
		return Credentials{}, err
	}
	return Credentials{ID: doc.Ref.ID, Username: fp.Username, PasswordHash: fp.PasswordHash}, nil
}

var _ Repository = (*FirestoreStore)(nil)
