package builder

import (
	"github.com/shouni/go-comic-kit/internal/config"

	"github.com/shouni/go-comic-kit/pkg/catalog"
	"github.com/shouni/go-comic-kit/pkg/pipeline"
	"github.com/shouni/go-comic-kit/pkg/providers"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/script"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各 Execute 関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config    *config.Config               // Config は環境変数と CLI フラグを合成した設定です。
	Registry  *providers.Registry          // Registry はプロバイダごとのアダプターのディスパッチ表です。
	Catalog   *catalog.Catalog             // Catalog は選択可能なモデルの一覧です。
	Script    *script.Generator            // Script は台本だけを作る場合に使います。
	Pipeline  *pipeline.Pipeline           // Pipeline は台本から画像までの一連の実行を管理します。
	Publisher *publisher.MarkdownPublisher // Publisher は成果物を書き出します。
	Reader    remoteio.InputReader         // Reader はストーリーや台本の読み込み元です。
	Writer    remoteio.OutputWriter        // Writer は成果物の保存先です。
}
