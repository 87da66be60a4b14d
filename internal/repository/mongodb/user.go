package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crystul/auth-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type userDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Email       string               `bson:"email"`
	Password    *string              `bson:"password,omitempty"`
	Avatar      *string              `bson:"avatar,omitempty"`
	Bio         *string              `bson:"bio,omitempty"`
	Skills      []string             `bson:"skills"`
	Interests   []string             `bson:"interests"`
	Experience  string               `bson:"experience"`
	LookingFor  []string             `bson:"lookingFor"`
	Location    *string              `bson:"location,omitempty"`
	Timezone    *string              `bson:"timezone,omitempty"`
	IsPublic    bool                 `bson:"isPublic"`
	Connections []primitive.ObjectID `bson:"connections"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

// UserRepository stores users as documents in one collection.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a repository on top of coll.
func NewUserRepository(coll *mongo.Collection) *UserRepository {
	return &UserRepository{coll: coll}
}

// GetByEmail finds a user by email. Emails are stored lowercase.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, bson.M{"email": model.NormalizeEmail(email)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return doc.toModel(), nil
}

// Create inserts user and returns it with the generated id.
func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	doc, err := fromModel(user)
	if err != nil {
		return model.User{}, err
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.User{}, model.ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}

	return doc.toModel(), nil
}

func fromModel(u model.User) (userDocument, error) {
	doc := userDocument{
		Name:        u.Name,
		Email:       model.NormalizeEmail(u.Email),
		Password:    u.PasswordHash,
		Avatar:      u.Avatar,
		Bio:         u.Bio,
		Skills:      orEmpty(u.Skills),
		Interests:   orEmpty(u.Interests),
		Experience:  string(u.Experience),
		LookingFor:  orEmpty(u.LookingFor),
		Location:    u.Location,
		Timezone:    u.Timezone,
		IsPublic:    u.IsPublic,
		Connections: []primitive.ObjectID{},
		CreatedAt:   u.CreatedAt,
	}
	if doc.Experience == "" {
		doc.Experience = string(model.ExperienceBeginner)
	}

	if u.ID != "" {
		id, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return userDocument{}, fmt.Errorf("failed to parse user id: %w", err)
		}
		doc.ID = id
	}

	for _, c := range u.Connections {
		id, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			return userDocument{}, fmt.Errorf("failed to parse connection id: %w", err)
		}
		doc.Connections = append(doc.Connections, id)
	}

	return doc, nil
}

func (d userDocument) toModel() model.User {
	connections := make([]string, 0, len(d.Connections))
	for _, c := range d.Connections {
		connections = append(connections, c.Hex())
	}

	return model.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Avatar:       d.Avatar,
		Bio:          d.Bio,
		Skills:       orEmpty(d.Skills),
		Interests:    orEmpty(d.Interests),
		Experience:   model.Experience(d.Experience),
		LookingFor:   orEmpty(d.LookingFor),
		Location:     d.Location,
		Timezone:     d.Timezone,
		IsPublic:     d.IsPublic,
		Connections:  connections,
		CreatedAt:    d.CreatedAt,
	}
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
