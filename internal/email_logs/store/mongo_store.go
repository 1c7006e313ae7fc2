/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package store

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wso2/email-gateway-service/internal/email_logs/model"
	"github.com/wso2/email-gateway-service/internal/system/constants"
	errors2 "github.com/wso2/email-gateway-service/internal/system/errors"
	"github.com/wso2/email-gateway-service/internal/system/pagination"
)

const countersCollection = "counters"

// MongoEmailLogStore keeps the delivery log in a MongoDB collection. Numeric ids come from a
// counters document so both backends expose the same id space to clients. The project name
// is copied into each document at append time.
type MongoEmailLogStore struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoEmailLogStore binds the store to a collection and ensures its indexes.
func NewMongoEmailLogStore(ctx context.Context, db *mongo.Database, collectionName string) (*MongoEmailLogStore, error) {

	s := &MongoEmailLogStore{
		collection: db.Collection(collectionName),
		counters:   db.Collection(countersCollection),
	}
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "request_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return nil, errors2.NewServerError(errors2.DB_CLIENT_INIT, errors.Wrap(err, "create email log indexes"))
	}
	return s, nil
}

func (s *MongoEmailLogStore) nextID(ctx context.Context) (int64, error) {

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": s.collection.Name()},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (s *MongoEmailLogStore) Append(ctx context.Context, entry *model.EmailLog) (*model.EmailLog, bool, error) {

	existing, err := s.GetByRequestID(ctx, entry.RequestID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, false, errors2.NewServerError(errors2.ADD_EMAIL_LOG, errors.Wrap(err, "allocate email log id"))
	}
	stored := *entry
	stored.ID = id
	stored.Status = constants.StatusQueued
	stored.ErrorMessage = nil
	stored.ProviderMessageID = nil
	stored.SentAt = nil
	stored.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Millisecond)
	nonNil(&stored)

	if _, err := s.collection.InsertOne(ctx, stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race with a concurrent append of the same request.
			existing, getErr := s.GetByRequestID(ctx, entry.RequestID)
			if getErr != nil {
				return nil, false, getErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, errors2.NewServerError(errors2.ADD_EMAIL_LOG, errors.Wrap(err, "insert email log"))
	}
	return &stored, true, nil
}

func (s *MongoEmailLogStore) MarkOutcome(ctx context.Context, id int64, outcome model.Outcome) error {

	set := bson.M{"status": outcome.Status}
	if outcome.ErrorMessage != "" {
		set["error_message"] = outcome.ErrorMessage
	}
	if outcome.ProviderMessageID != "" {
		set["provider_message_id"] = outcome.ProviderMessageID
	}
	if outcome.SentAt != nil {
		set["sent_at"] = outcome.SentAt.UTC()
	}
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": constants.StatusQueued},
		bson.M{"$set": set})
	if err != nil {
		return errors2.NewServerError(errors2.UPDATE_EMAIL_LOG, errors.Wrap(err, "record delivery outcome"))
	}
	if result.MatchedCount > 0 {
		return nil
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrLogNotFound
	}
	return ErrStatusFinal
}

func (s *MongoEmailLogStore) Get(ctx context.Context, id int64) (*model.EmailLog, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoEmailLogStore) GetByRequestID(ctx context.Context, requestID string) (*model.EmailLog, error) {
	return s.findOne(ctx, bson.M{"request_id": requestID})
}

func (s *MongoEmailLogStore) findOne(ctx context.Context, filter bson.M) (*model.EmailLog, error) {

	var entry model.EmailLog
	err := s.collection.FindOne(ctx, filter).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors2.NewServerError(errors2.GET_EMAIL_LOG, errors.Wrap(err, "find email log"))
	}
	normalize(&entry)
	return &entry, nil
}

func (s *MongoEmailLogStore) Query(ctx context.Context, filter model.LogFilter, page,
	pageSize int) (pagination.Page[model.EmailLog], error) {

	query := bson.M{}
	if filter.ProjectID != nil {
		query["project_id"] = *filter.ProjectID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		query["$or"] = bson.A{bson.M{"subject": pattern}, bson.M{"error_message": pattern}}
	}

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return pagination.Page[model.EmailLog]{}, errors2.NewServerError(errors2.GET_EMAIL_LOG,
			errors.Wrap(err, "count email logs"))
	}
	limit, offset, ok := pagination.Bounds(page, pageSize)
	if !ok || int64(offset) >= total {
		return pagination.NewPage[model.EmailLog](nil, total, page, pageSize), nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return pagination.Page[model.EmailLog]{}, errors2.NewServerError(errors2.GET_EMAIL_LOG,
			errors.Wrap(err, "query email logs"))
	}
	defer cursor.Close(ctx)

	var items []model.EmailLog
	if err := cursor.All(ctx, &items); err != nil {
		return pagination.Page[model.EmailLog]{}, errors2.NewServerError(errors2.GET_EMAIL_LOG,
			errors.Wrap(err, "decode email logs"))
	}
	for i := range items {
		normalize(&items[i])
	}
	return pagination.NewPage(items, total, page, pageSize), nil
}

func (s *MongoEmailLogStore) CountByStatusSince(ctx context.Context, status string, since time.Time) (int64, error) {

	count, err := s.collection.CountDocuments(ctx, bson.M{"status": status, "created_at": bson.M{"$gte": since.UTC()}})
	if err != nil {
		return 0, errors2.NewServerError(errors2.GET_STATS, errors.Wrap(err, "count email logs"))
	}
	return count, nil
}

func (s *MongoEmailLogStore) TopProjects(ctx context.Context, since time.Time, limit int) ([]model.ProjectVolume, error) {

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since.UTC()}}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$project_id",
			"project_name": bson.M{"$last": "$project_name"},
			"total":        bson.M{"$sum": 1},
			"sent": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", constants.StatusSent}}, 1, 0}}},
			"failed": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", constants.StatusFailed}}, 1, 0}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}, {Key: "project_name", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors2.NewServerError(errors2.GET_STATS, errors.Wrap(err, "rank projects"))
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ProjectName string `bson:"project_name"`
		Total       int64  `bson:"total"`
		Sent        int64  `bson:"sent"`
		Failed      int64  `bson:"failed"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors2.NewServerError(errors2.GET_STATS, errors.Wrap(err, "decode project ranking"))
	}
	volumes := make([]model.ProjectVolume, 0, len(rows))
	for _, r := range rows {
		volumes = append(volumes, model.ProjectVolume{ProjectName: r.ProjectName, Total: r.Total, Sent: r.Sent, Failed: r.Failed})
	}
	return volumes, nil
}

func (s *MongoEmailLogStore) RecentFailures(ctx context.Context, limit int) ([]model.FailureSummary, error) {

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.M{"status": constants.StatusFailed}, opts)
	if err != nil {
		return nil, errors2.NewServerError(errors2.GET_STATS, errors.Wrap(err, "list recent failures"))
	}
	defer cursor.Close(ctx)

	var entries []model.EmailLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, errors2.NewServerError(errors2.GET_STATS, errors.Wrap(err, "decode recent failures"))
	}
	failures := make([]model.FailureSummary, 0, len(entries))
	for _, e := range entries {
		normalize(&e)
		summary := model.FailureSummary{ID: e.ID, ProjectID: e.ProjectID, Subject: e.Subject, ToEmails: e.ToEmails,
			CreatedAt: e.CreatedAt}
		if e.ErrorMessage != nil {
			summary.ErrorMessage = *e.ErrorMessage
		}
		failures = append(failures, summary)
	}
	return failures, nil
}

func (s *MongoEmailLogStore) FailuresSince(ctx context.Context, projectID int64, since time.Time) ([]model.FailureMark, error) {

	filter := bson.M{
		"project_id": projectID,
		"status":     constants.StatusFailed,
		"created_at": bson.M{"$gte": since.UTC()},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"created_at": 1})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors2.NewServerError(errors2.GET_EMAIL_LOG, errors.Wrap(err, "load failure history"))
	}
	defer cursor.Close(ctx)

	var marks []model.FailureMark
	for cursor.Next(ctx) {
		var doc struct {
			ID        int64     `bson:"_id"`
			CreatedAt time.Time `bson:"created_at"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors2.NewServerError(errors2.GET_EMAIL_LOG, errors.Wrap(err, "decode failure time"))
		}
		marks = append(marks, model.FailureMark{ID: doc.ID, CreatedAt: doc.CreatedAt.UTC()})
	}
	if err := cursor.Err(); err != nil {
		return nil, errors2.NewServerError(errors2.GET_EMAIL_LOG, errors.Wrap(err, "load failure history"))
	}
	return marks, nil
}

// DeleteByProject removes every entry of a project. Mongo has no cascade from the registry.
func (s *MongoEmailLogStore) DeleteByProject(ctx context.Context, projectID int64) error {

	if _, err := s.collection.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return errors2.NewServerError(errors2.UPDATE_EMAIL_LOG, errors.Wrap(err, "delete project email logs"))
	}
	return nil
}

func nonNil(e *model.EmailLog) {
	if e.ToEmails == nil {
		e.ToEmails = []string{}
	}
	if e.Cc == nil {
		e.Cc = []string{}
	}
	if e.Bcc == nil {
		e.Bcc = []string{}
	}
	if e.AttachmentNames == nil {
		e.AttachmentNames = []string{}
	}
}

func normalize(e *model.EmailLog) {
	nonNil(e)
	e.CreatedAt = e.CreatedAt.UTC()
	if e.SentAt != nil {
		t := e.SentAt.UTC()
		e.SentAt = &t
	}
}
