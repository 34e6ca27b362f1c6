package records

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/mongodb"
	"roofscore/packages/go/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Timeout applied to every single database operation.
const OperationTimeout = 20 * time.Second

// ImageStore keeps mission images in the mission_images collection.
type ImageStore struct {
	mongoDB mongodb.MongoDb
	logger  *zerolog.Logger
}

var _ roofscore.ImageStore = (*ImageStore)(nil)

func NewImageStore(mongoDB mongodb.MongoDb, l *zerolog.Logger) *ImageStore {
	return &ImageStore{mongoDB: mongoDB, logger: l}
}

// stemFilter matches an image by name regardless of its extension.
func stemFilter(missionID, imageName string) bson.D {
	pattern := "^" + regexp.QuoteMeta(utils.ImageStem(imageName)) + `(\.[^./\\]*)?$`
	return bson.D{
		{Key: "mission_id", Value: missionID},
		{Key: "img_name", Value: primitive.Regex{Pattern: pattern}},
	}
}

func (s *ImageStore) GetImage(ctx context.Context, missionID, imageName string) (*types.MissionImage, error) {
	imagesCollection := s.mongoDB.GetCollection(types.MissionImagesCollection)

	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	image := types.MissionImage{}
	err := imagesCollection.FindOne(ctxM, stemFilter(missionID, imageName)).Decode(&image)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("image %s of mission %s: %w", imageName, missionID, roofscore.ErrNotFound)
		}
		s.logger.Error().Err(err).Str("mission_id", missionID).Str("img_name", imageName).Msg("Could not retrieve image from MongoDB.")
		return nil, err
	}
	return &image, nil
}

func (s *ImageStore) ListImages(ctx context.Context, missionID string) ([]types.MissionImage, error) {
	imagesCollection := s.mongoDB.GetCollection(types.MissionImagesCollection)

	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "img_name", Value: 1}})
	cursor, err := imagesCollection.Find(ctxM, bson.D{{Key: "mission_id", Value: missionID}}, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("mission_id", missionID).Msg("Could not list images from MongoDB.")
		return nil, err
	}
	defer cursor.Close(ctxM)

	images := make([]types.MissionImage, 0)
	if err = cursor.All(ctxM, &images); err != nil {
		s.logger.Error().Err(err).Str("mission_id", missionID).Msg("Could not decode images from MongoDB.")
		return nil, err
	}
	return images, nil
}

func (s *ImageStore) InsertImage(ctx context.Context, image *types.MissionImage) error {
	imagesCollection := s.mongoDB.GetCollection(types.MissionImagesCollection)

	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	res, err := imagesCollection.InsertOne(ctxM, image)
	if err != nil {
		s.logger.Error().Err(err).Str("mission_id", image.MissionID).Str("img_name", image.ImageName).Msg("Could not insert image in MongoDB.")
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		image.ID = id
	}
	return nil
}

func (s *ImageStore) UpsertImage(ctx context.Context, image *types.MissionImage) error {
	imagesCollection := s.mongoDB.GetCollection(types.MissionImagesCollection)

	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	doc := *image
	doc.ID = primitive.NilObjectID
	update := bson.D{{Key: "$set", Value: doc}}
	opts := options.Update().SetUpsert(true)
	res, err := imagesCollection.UpdateOne(ctxM, stemFilter(image.MissionID, image.ImageName), update, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("mission_id", image.MissionID).Str("img_name", image.ImageName).Msg("Could not upsert image in MongoDB.")
		return err
	}
	if res.UpsertedCount > 0 {
		s.logger.Debug().Str("mission_id", image.MissionID).Str("img_name", image.ImageName).Msg("Image entry not found. New entry created.")
	}
	return nil
}
