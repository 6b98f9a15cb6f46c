package querycache

import "testing"

func TestNormalizeQueryOrderInsensitive(t *testing.T) {
	a := NormalizeQuery("night keeper")
	b := NormalizeQuery("keeper night")
	if a != b {
		t.Errorf("%q != %q", a, b)
	}
}

func TestNormalizeQueryCaseInsensitive(t *testing.T) {
	if NormalizeQuery("Keeper") != NormalizeQuery("keeper") {
		t.Error("case changes the fingerprint")
	}
}

func TestNormalizeQueryConnectiveMatters(t *testing.T) {
	if NormalizeQuery("night OR keeper") == NormalizeQuery("night AND keeper") {
		t.Error("AND and OR share a fingerprint")
	}
}

func TestNormalizeQueryExcludesMatter(t *testing.T) {
	if NormalizeQuery("the NOT night") == NormalizeQuery("the") {
		t.Error("exclusion dropped from fingerprint")
	}
	if NormalizeQuery("the NOT night") == NormalizeQuery("the night") {
		t.Error("exclusion conflated with conjunction")
	}
}

func TestNormalizeQueryPhraseKeepsOrder(t *testing.T) {
	if NormalizeQuery(`"night keeper"`) == NormalizeQuery(`"keeper night"`) {
		t.Error("phrase word order dropped from fingerprint")
	}
}
