package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FollowMutations counts follow graph writes by action (follow, unfollow).
	FollowMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yatube",
		Name:      "follow_mutations_total",
		Help:      "Follow and unfollow operations that changed the graph.",
	}, []string{"action"})

	// PageCacheLookups counts cached page lookups by result (hit, miss).
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yatube",
		Name:      "page_cache_lookups_total",
		Help:      "Cached page lookups.",
	}, []string{"result"})

	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "yatube",
		Name:      "posts_created_total",
		Help:      "Posts created.",
	})

	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "yatube",
		Name:      "comments_created_total",
		Help:      "Comments created.",
	})
)
