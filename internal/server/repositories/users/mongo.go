package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// CollectionName is the MongoDB collection holding accounts.
	CollectionName = "users"

	// default key-derived names, so indexes created by earlier deployments
	// are reused instead of conflicting
	emailIndex  = "email_1"
	rollNoIndex = "rollNo_1"
)

// userDocument is the stored shape: fixed fields plus profile keys inlined
// at the top level of the document.
type userDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	Email     string        `bson:"email"`
	RollNo    string        `bson:"rollNo"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
	Profile   bson.M        `bson:",inline"`
}

// MongoRepository keeps accounts as documents. Uniqueness comes from the
// unique indexes created by EnsureIndexes.
type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), now: time.Now}
}

// EnsureIndexes creates the unique email and roll number indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: models.FieldEmail, Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: models.FieldRollNo, Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	user.CreatedAt = now
	user.UpdatedAt = now

	doc := toDocument(user)
	doc.ID = bson.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, mapMongoError(err)
	}

	user.ID = doc.ID.Hex()
	return user, nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: models.FieldEmail, Value: bson.D{{Key: "$eq", Value: email}}}})
}

func (r *MongoRepository) GetByRollNo(ctx context.Context, rollNo string) (*models.User, error) {
	return r.findOne(ctx, rollNoFilter(rollNo))
}

func (r *MongoRepository) UpdateByRollNo(ctx context.Context, rollNo string, patch *models.UserPatch) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := r.coll.FindOneAndUpdate(ctx, rollNoFilter(rollNo), updateDocument(patch, r.now()), opts)
	return decodeResult(res)
}

func (r *MongoRepository) DeleteByRollNo(ctx context.Context, rollNo string) (*models.User, error) {
	return decodeResult(r.coll.FindOneAndDelete(ctx, rollNoFilter(rollNo)))
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	return decodeResult(r.coll.FindOne(ctx, filter))
}

func rollNoFilter(rollNo string) bson.D {
	return bson.D{{Key: models.FieldRollNo, Value: bson.D{{Key: "$eq", Value: rollNo}}}}
}

func decodeResult(res *mongo.SingleResult) (*models.User, error) {
	var doc userDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, mapMongoError(err)
	}
	return fromDocument(&doc), nil
}

// updateDocument builds the $set stage for patch.
func updateDocument(patch *models.UserPatch, now time.Time) bson.D {
	set := bson.D{}
	if patch.Email != nil {
		set = append(set, bson.E{Key: models.FieldEmail, Value: *patch.Email})
	}
	if patch.RollNo != nil {
		set = append(set, bson.E{Key: models.FieldRollNo, Value: *patch.RollNo})
	}
	if patch.PasswordHash != nil {
		set = append(set, bson.E{Key: models.FieldPassword, Value: *patch.PasswordHash})
	}
	for k, v := range patch.Profile {
		set = append(set, bson.E{Key: k, Value: v})
	}
	set = append(set, bson.E{Key: models.FieldUpdatedAt, Value: now.UTC().Truncate(time.Millisecond)})
	return bson.D{{Key: "$set", Value: set}}
}

func toDocument(u *models.User) *userDocument {
	profile := bson.M{}
	for k, v := range u.Profile {
		if !models.IsReservedField(k) {
			profile[k] = v
		}
	}
	doc := &userDocument{
		Email:     u.Email,
		RollNo:    u.RollNo,
		Password:  u.PasswordHash,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		Profile:   profile,
	}
	if id, err := bson.ObjectIDFromHex(u.ID); err == nil {
		doc.ID = id
	}
	return doc
}

func fromDocument(doc *userDocument) *models.User {
	u := &models.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		RollNo:       doc.RollNo,
		PasswordHash: doc.Password,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if len(doc.Profile) > 0 {
		u.Profile = make(map[string]any, len(doc.Profile))
		for k, v := range doc.Profile {
			if !models.IsReservedField(k) {
				u.Profile[k] = normalize(v)
			}
		}
	}
	return u
}

// normalize converts driver-specific containers into plain maps and slices
// so profile values encode to JSON the way they were submitted.
func normalize(v any) any {
	switch val := v.(type) {
	case bson.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = normalize(e)
		}
		return m
	case bson.A:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	case bson.DateTime:
		return val.Time().UTC()
	case bson.ObjectID:
		return val.Hex()
	default:
		return v
	}
}

// mapMongoError turns duplicate key errors into the conflict sentinel for
// the index that fired, recognised by index name or by the duplicated key.
func mapMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case duplicateOn(msg, emailIndex, models.FieldEmail):
			return common.ErrEmailExists
		case duplicateOn(msg, rollNoIndex, models.FieldRollNo):
			return common.ErrRollNoExists
		}
		return fmt.Errorf("db error: %w", common.ErrorAlreadyExists)
	}
	return fmt.Errorf("db error: %w", err)
}

func duplicateOn(msg, index, field string) bool {
	return strings.Contains(msg, "index: "+index+" ") || strings.Contains(msg, "dup key: { "+field+":")
}
