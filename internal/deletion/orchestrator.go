// Package deletion implements resource teardown: erase a module's or
// product's storage blobs, purge its document subtree, delete the root
// document, and confirm the root is really gone before reporting success.
package deletion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"modbox/backend/internal/auditlog"
	"modbox/backend/internal/models"
	"modbox/backend/internal/store"
	"modbox/backend/internal/userinfo"
)

var (
	// ErrUnauthorized is returned before any destructive step when the actor
	// lacks the delete grant.
	ErrUnauthorized = errors.New("actor is not allowed to delete")
	// ErrVerificationFailed is returned when the root document still exists
	// after the retry budget. No audit entry is written in that case.
	ErrVerificationFailed = errors.New("deletion could not be verified")
)

// Orchestrator runs the teardown sequence: validate, purge blobs, purge
// subtree, delete root, verify, audit.
type Orchestrator struct {
	docs       store.Store
	blobs      store.Blobs
	audit      *auditlog.Logger
	grants     *userinfo.Service
	log        *zap.Logger
	retries    int
	retryDelay time.Duration
}

func NewOrchestrator(docs store.Store, blobs store.Blobs, audit *auditlog.Logger, grants *userinfo.Service, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		docs:       docs,
		blobs:      blobs,
		audit:      audit,
		grants:     grants,
		log:        log,
		retries:    3,
		retryDelay: 100 * time.Millisecond,
	}
}

// WithRetryBudget overrides the verification retry count and delay.
func (o *Orchestrator) WithRetryBudget(retries int, delay time.Duration) *Orchestrator {
	o.retries = retries
	o.retryDelay = delay
	return o
}

// DeleteModule tears down a single module under a product. Re-running
// against an already-deleted module fails in validation with
// store.ErrNotFound and performs no writes.
func (o *Orchestrator) DeleteModule(ctx context.Context, actorUID, productID, moduleID string) error {
	allowed, err := o.grants.CanDeleteModules(ctx, actorUID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}

	if _, err := o.docs.Get(ctx, models.ProductPath(productID)); err != nil {
		return fmt.Errorf("product %s: %w", productID, err)
	}
	modulePath := models.ModulePath(productID, moduleID)
	data, err := o.docs.Get(ctx, modulePath)
	if err != nil {
		return fmt.Errorf("module %s: %w", moduleID, err)
	}

	if err := o.purgeModule(ctx, productID, moduleID, moduleType(data)); err != nil {
		return err
	}

	if !ConfirmAbsent(ctx, o.docs, modulePath, o.retries, o.retryDelay) {
		return fmt.Errorf("failed to delete module with ID %s: %w", moduleID, ErrVerificationFailed)
	}
	return o.audit.Append(ctx, actorUID, models.ActionDeleteModule, moduleID, productID)
}

// DeleteProduct tears down a product: every child module's blobs and
// subtree, the product-level categories, then the product document itself.
func (o *Orchestrator) DeleteProduct(ctx context.Context, actorUID, productID string) error {
	allowed, err := o.grants.CanDeleteModules(ctx, actorUID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}

	productPath := models.ProductPath(productID)
	if _, err := o.docs.Get(ctx, productPath); err != nil {
		return fmt.Errorf("product %s: %w", productID, err)
	}

	modules, err := o.docs.Docs(ctx, models.ModulesPath(productID))
	if err != nil {
		return err
	}
	for _, mod := range modules {
		if err := o.purgeModule(ctx, productID, mod.ID, moduleType(mod.Data)); err != nil {
			return err
		}
	}

	walker := NewWalker(o.docs, o.log)
	if err := walker.PurgeCollection(ctx, productPath+"/categories"); err != nil {
		o.log.Warn("purging product categories", zap.String("product", productID), zap.Error(err))
	}

	if err := o.docs.Delete(ctx, productPath); err != nil {
		return fmt.Errorf("deleting product %s: %w", productID, err)
	}
	if !ConfirmAbsent(ctx, o.docs, productPath, o.retries, o.retryDelay) {
		return fmt.Errorf("failed to delete product with ID %s: %w", productID, ErrVerificationFailed)
	}
	return o.audit.Append(ctx, actorUID, models.ActionDeleteProduct, productID, "")
}

// purgeModule erases the module's storage prefixes, purges the
// type-registered subcollections, and deletes the module document. Blob
// prefixes must go first: they are derived from ids that disappear with the
// documents.
func (o *Orchestrator) purgeModule(ctx context.Context, productID, moduleID string, typ models.ModuleType) error {
	for _, prefix := range typ.BlobPrefixes(productID, moduleID) {
		o.eraseBlobs(ctx, prefix)
	}

	modulePath := models.ModulePath(productID, moduleID)
	walker := NewWalker(o.docs, o.log)
	for _, name := range typ.Subcollections() {
		if err := walker.PurgeCollection(ctx, modulePath+"/"+name); err != nil {
			o.log.Warn("purging subcollection",
				zap.String("collection", modulePath+"/"+name), zap.Error(err))
		}
	}

	if err := o.docs.Delete(ctx, modulePath); err != nil {
		return fmt.Errorf("deleting module %s: %w", moduleID, err)
	}
	return nil
}

// eraseBlobs deletes every stored object under a prefix. A prefix matching
// nothing is a no-op; individual failures are logged and skipped.
func (o *Orchestrator) eraseBlobs(ctx context.Context, prefix string) {
	names, err := o.blobs.List(ctx, prefix)
	if err != nil {
		o.log.Warn("listing storage prefix", zap.String("prefix", prefix), zap.Error(err))
		return
	}
	for _, name := range names {
		if err := o.blobs.Delete(ctx, name); err != nil {
			o.log.Warn("deleting storage object", zap.String("object", name), zap.Error(err))
		}
	}
}

func moduleType(data map[string]interface{}) models.ModuleType {
	raw, _ := data["type"].(string)
	return models.ModuleType(raw)
}
