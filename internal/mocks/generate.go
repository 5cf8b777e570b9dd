package mocks

//go:generate mockery --name Store --srcpkg github.com/beanmart/salesmart/internal/core/storage --output ./storage --outpkg storagemocks
