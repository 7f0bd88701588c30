package model

import "time"

const DefaultClientTimeout = 15 * time.Second
const DefaultShutdownTimeout = 5 * time.Second

const HeaderContentType = "Content-Type"
const HeaderShopifyHmac = "X-Shopify-Hmac-Sha256"
const HeaderShopifyTopic = "X-Shopify-Topic"
const HeaderShopifyDomain = "X-Shopify-Shop-Domain"
const HeaderShopifyToken = "X-Shopify-Access-Token"

type ContextKey string

const KeyContextLogger ContextKey = "logger"
const KeyContextUserID ContextKey = "user_id"

const KeyLoggerError = "error"
