package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stroketraining/internal/model"
	"stroketraining/internal/service"
)

type DocumentService struct {
	mock.Mock
}

func (m *DocumentService) UploadBatch(ctx context.Context, actor service.Actor, meta service.DocumentInput, files []service.FileUpload, onProgress service.ProgressFunc) (*service.BatchResult, error) {
	args := m.Called(ctx, actor, meta, files, onProgress)
	var res *service.BatchResult
	if v := args.Get(0); v != nil {
		res = v.(*service.BatchResult)
	}
	return res, args.Error(1)
}

func (m *DocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	var doc *model.Document
	if v := args.Get(0); v != nil {
		doc = v.(*model.Document)
	}
	return doc, args.Error(1)
}

func (m *DocumentService) List(ctx context.Context, opts service.ListOptions) ([]model.Document, error) {
	args := m.Called(ctx, opts)
	var docs []model.Document
	if v := args.Get(0); v != nil {
		docs = v.([]model.Document)
	}
	return docs, args.Error(1)
}

func (m *DocumentService) UpdateStatus(ctx context.Context, id string, to model.Status, actor service.Actor) error {
	args := m.Called(ctx, id, to, actor)
	return args.Error(0)
}

func (m *DocumentService) Delete(ctx context.Context, id string, actor service.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *DocumentService) DownloadURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *DocumentService) RecordView(ctx context.Context, id string) {
	m.Called(ctx, id)
}

func (m *DocumentService) RecordDownload(ctx context.Context, id string) {
	m.Called(ctx, id)
}

func (m *DocumentService) Rate(ctx context.Context, id string, stars int) error {
	args := m.Called(ctx, id, stars)
	return args.Error(0)
}
