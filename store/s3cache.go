/* Copyright (c) 2013 The s3cache AUTHORS. All rights reserved.
 * Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Cache is an httpcache.Cache kept in S3. It backs the score memo so that
// every director session of a tournament shares computed game scores.
type S3Cache struct {
	// Client may be replaced before use, e.g. to point at a test endpoint.
	Client *s3.Client

	bucketName string
	prefix     string
	gzip       bool
	logErrors  bool
	ctx        context.Context
}

// NewS3Cache returns a cache in bucket under prefix, optionally gzipping
// entries. Callers should take care to invoke Init() before use.
func NewS3Cache(ctx context.Context, bucketName string, prefix string,
	gzip bool, logErrors bool) *S3Cache {

	return &S3Cache{
		ctx:        ctx,
		bucketName: bucketName,
		prefix:     prefix,
		gzip:       gzip,
		logErrors:  logErrors,
	}
}

func (c *S3Cache) Init() error {
	if c.Client != nil {
		return nil
	}
	client, err := newS3Client(c.ctx, c.bucketName)
	if err != nil {
		return fmt.Errorf("store.cacheInit: %w", err)
	}
	c.Client = client

	return nil
}

// objectKey keeps keys readable: the memo already hashes its keys, so only
// path separators need escaping.
func (c *S3Cache) objectKey(key string) string {
	objKey := path.Join(c.prefix, "cache",
		strings.NewReplacer("/", "_", ":", "_").Replace(key))
	if c.gzip {
		objKey += ".gz"
	}
	return objKey
}

func (c *S3Cache) logf(format string, args ...any) {
	if c.logErrors {
		log.Printf(format, args...)
	}
}

func (c *S3Cache) Get(key string) ([]byte, bool) {
	objKey := c.objectKey(key)
	resp, err := c.Client.GetObject(c.ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(objKey),
	})
	if err != nil {
		if !isAPIError(err, "NoSuchKey") {
			c.logf("store.cacheGet: failed to get object %v/%v: %v", c.bucketName,
				objKey, err)
		}
		return nil, false
	}
	defer resp.Body.Close()

	var rdr io.Reader = resp.Body
	if c.gzip {
		gr, err := gzip.NewReader(rdr)
		if err != nil {
			c.logf("store.cacheGet: failed to open compressed object %v/%v: %v",
				c.bucketName, objKey, err)
			return nil, false
		}
		defer gr.Close()
		rdr = gr
	}
	data, err := io.ReadAll(rdr)
	if err != nil {
		c.logf("store.cacheGet: failed to read object %v/%v: %v", c.bucketName,
			objKey, err)
		return nil, false
	}

	return data, true
}

func (c *S3Cache) Set(key string, data []byte) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(c.objectKey(key)),
		Body:   bytes.NewReader(data),
	}
	if c.gzip {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(data); err != nil {
			c.logf("store.cacheSet: failed to gzip %v: %v", *input.Key, err)
			return
		}
		if err := gw.Close(); err != nil {
			c.logf("store.cacheSet: failed to gzip %v: %v", *input.Key, err)
			return
		}
		input.Body = &buf
		input.ContentEncoding = aws.String("gzip")
	}

	if _, err := c.Client.PutObject(c.ctx, input); err != nil {
		c.logf("store.cacheSet: put failed for %v/%v: %v", c.bucketName,
			*input.Key, err)
	}
}

func (c *S3Cache) Delete(key string) {
	objKey := c.objectKey(key)
	_, err := c.Client.DeleteObject(c.ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(objKey),
	})
	if err != nil {
		c.logf("store.cacheDelete: delete failed for %v/%v: %v", c.bucketName,
			objKey, err)
	}
}
