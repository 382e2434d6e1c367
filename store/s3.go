/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
	"github.com/mikeb26/diplomacy-tdbot/tournament"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentGets = 8

// S3Store keeps a tournament in an S3 bucket: a head object holding
// everything but game states, which live in their own content addressed
// objects. Saves are conditional on the head's ETag.
type S3Store struct {
	// Client may be replaced before use, e.g. to point at a test endpoint.
	Client *s3.Client

	bucketName string
	prefix     string
}

// headDoc is the stored form of the head object. GameKeys maps
// "round/board" to the object holding that game's state.
type headDoc struct {
	Tournament *tournament.Tournament `json:"tournament"`
	GameKeys   map[string]string      `json:"gameKeys"`
}

func gameRef(round, board int) string {
	return fmt.Sprintf("%d/%d", round, board)
}

// NewS3Store returns a store for the tournament under prefix in bucket.
// Callers should take care to invoke Init() before use.
func NewS3Store(bucketName string, prefix string) *S3Store {
	return &S3Store{bucketName: bucketName, prefix: prefix}
}

// newS3Client loads the default AWS configuration and verifies the bucket
// can be read and listed.
func newS3Client(ctx context.Context, bucketName string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)

	if _, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	}); err != nil {
		return nil, fmt.Errorf("head bucket failed for %s: %w", bucketName, err)
	}
	if _, err = client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucketName),
		MaxKeys: aws.Int32(1),
	}); err != nil {
		return nil, fmt.Errorf("list objects failed for %s: %w", bucketName, err)
	}

	return client, nil
}

func (s *S3Store) Init(ctx context.Context) error {
	if s.Client != nil {
		return nil
	}
	client, err := newS3Client(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("store.init: %w", err)
	}
	s.Client = client

	return nil
}

func (s *S3Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func isAPIError(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}

func (s *S3Store) get(ctx context.Context, key string) ([]byte, string, error) {
	resp, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isAPIError(err, "NoSuchKey") {
			return nil, "", fmt.Errorf("%v/%v: %w", s.bucketName, key, ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to get object %v/%v: %w", s.bucketName,
			key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object %v/%v: %w", s.bucketName,
			key, err)
	}

	return data, aws.ToString(resp.ETag), nil
}

// Load reads the head object, then every game state concurrently.
func (s *S3Store) Load(ctx context.Context) (*tournament.Tournament, string, error) {
	data, etag, err := s.get(ctx, s.key("tournament.json"))
	if err != nil {
		return nil, "", fmt.Errorf("store.load: %w", err)
	}
	var head headDoc
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, "", fmt.Errorf("store.load: %w", err)
	}
	t := head.Tournament
	if t == nil {
		return nil, "", fmt.Errorf("store.load: empty head object: %w", ErrNotFound)
	}

	games := t.Games()
	for _, g := range games {
		if _, ok := head.GameKeys[gameRef(g.Round, g.Board)]; !ok {
			return nil, "", fmt.Errorf("store.load: round %v board %v has no state: %w",
				g.Round, g.Board, ErrNotFound)
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentGets)
	for _, g := range games {
		g := g
		key := head.GameKeys[gameRef(g.Round, g.Board)]
		eg.Go(func() error {
			data, _, err := s.get(egCtx, key)
			if err != nil {
				return err
			}
			var state diplomacy.GameState
			if err := json.Unmarshal(data, &state); err != nil {
				return fmt.Errorf("%v: %w", key, err)
			}
			g.State = &state
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, "", fmt.Errorf("store.load: %w", err)
	}

	return t, etag, nil
}

// Save writes any changed game states, then the head object conditional on
// version. Game objects are named by content so a failed save leaves the
// stored tournament untouched.
func (s *S3Store) Save(ctx context.Context, t *tournament.Tournament,
	version string) (string, error) {

	stripped := *t
	stripped.Rounds = make([]*tournament.Round, 0, len(t.Rounds))
	head := headDoc{Tournament: &stripped, GameKeys: make(map[string]string)}
	states := make(map[string][]byte)
	for _, r := range t.Rounds {
		rc := *r
		rc.Games = make([]*tournament.Game, 0, len(r.Games))
		for _, g := range r.Games {
			data, err := json.Marshal(g.State)
			if err != nil {
				return "", fmt.Errorf("store.save: %w", err)
			}
			key := s.key("games/" + contentVersion(data) + ".json")
			head.GameKeys[gameRef(g.Round, g.Board)] = key
			states[key] = data
			gc := *g
			gc.State = nil
			rc.Games = append(rc.Games, &gc)
		}
		stripped.Rounds = append(stripped.Rounds, &rc)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentGets)
	for key, data := range states {
		key, data := key, data
		eg.Go(func() error {
			_, err := s.Client.PutObject(egCtx, &s3.PutObjectInput{
				Bucket:      aws.String(s.bucketName),
				Key:         aws.String(key),
				Body:        bytes.NewReader(data),
				IfNoneMatch: aws.String("*"),
			})
			// an existing object already holds exactly this state
			if err != nil && !isAPIError(err, "PreconditionFailed",
				"ConditionalRequestConflict") {
				return fmt.Errorf("put failed for %v/%v: %w", s.bucketName, key, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", fmt.Errorf("store.save: %w", err)
	}

	data, err := json.Marshal(head)
	if err != nil {
		return "", fmt.Errorf("store.save: %w", err)
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.key("tournament.json")),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if version == "" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(version)
	}
	resp, err := s.Client.PutObject(ctx, input)
	if err != nil {
		if isAPIError(err, "PreconditionFailed", "ConditionalRequestConflict") {
			return "", stale("save", version, "newer")
		}
		return "", fmt.Errorf("store.save: put failed for %v/%v: %w", s.bucketName,
			*input.Key, err)
	}
	log.Printf("store.save: wrote %v/%v with %v game states", s.bucketName,
		*input.Key, len(states))

	return aws.ToString(resp.ETag), nil
}
